package geometry

import "github.com/codeGROOVE-dev/paratime/pkg/catalog"

// Marker styling.
const (
	SelectedRadius = 6
	SelectedFill   = "#FF5533"
	DefaultRadius  = 4
	DefaultFill    = "#0088cc"
	MarkerStroke   = "#FFFFFF"
	StrokeWidth    = 1.5
)

// Marker is one clickable city dot on the map.
type Marker struct {
	TimezoneID  string  `json:"timezone"`
	City        string  `json:"city"`
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	Label       string  `json:"label,omitempty"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
	StrokeWidth float64 `json:"stroke_width"`
	Radius      int     `json:"radius"`
	Selected    bool    `json:"selected"`
}

// Markers lays out one marker per catalog city that has coordinates, in
// catalog order. The city whose zone is selected is enlarged and labelled.
func Markers(cat *catalog.Catalog, selected string) []Marker {
	var out []Marker
	for _, r := range cat.Records() {
		if r.Coordinates == nil {
			continue
		}
		m := Marker{
			TimezoneID:  r.TimezoneID,
			City:        r.City,
			Longitude:   r.Coordinates.Longitude,
			Latitude:    r.Coordinates.Latitude,
			Radius:      DefaultRadius,
			Fill:        DefaultFill,
			Stroke:      MarkerStroke,
			StrokeWidth: StrokeWidth,
		}
		if r.TimezoneID == selected {
			m.Selected = true
			m.Radius = SelectedRadius
			m.Fill = SelectedFill
			m.Label = r.City
		}
		out = append(out, m)
	}
	return out
}
