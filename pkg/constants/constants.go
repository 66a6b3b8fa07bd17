// Package constants defines the fixed labels and defaults shared by the paratime binaries.
package constants

// Version is reported by -version on both binaries.
const Version = "1.0.0"

// Fixed UI labels. The converter only ships its original French wording.
const (
	Title            = "Paratime - Convertisseur de Fuseaux Horaires"
	SourceHeading    = "Heures d'origine"
	ConvertedHeading = "Heures Converties"
	ZoneFieldLabel   = "Ville / Fuseau Horaire"
	DateFieldLabel   = "Date"
	TimeFieldLabel   = "Heure"
	MapHint          = "Cliquez sur un point pour sélectionner un fuseau horaire"

	// ErrorLabel replaces the time of a city whose zone could not be projected.
	ErrorLabel = "Erreur"
	// InvalidSourceLabel is shown while the date or time input is unusable.
	InvalidSourceLabel = "Date source invalide"
	// NoTargetsLabel is shown when the catalog holds only the source zone.
	NoTargetsLabel = "Aucun autre fuseau horaire à afficher."
	// GeometryFallbackNotice tells the user the map uses the built-in outline.
	GeometryFallbackNotice = "Carte simplifiée : la géométrie mondiale n'a pas pu être chargée."
)

// DefaultGeometryURL is the world TopoJSON the map picker draws.
const DefaultGeometryURL = "https://raw.githubusercontent.com/deldersveld/topojson/master/world-countries.json"
