package catalog

import (
	"math"

	"github.com/bradfitz/latlong"
)

const earthRadiusKm = 6371.0

// Nearest returns the catalog city closest to the given point, for map
// clicks that land near a marker. Cities without coordinates are ignored.
func (c *Catalog) Nearest(lat, lon float64) (Record, float64, bool) {
	best, bestKm := -1, math.Inf(1)
	for i, r := range c.records {
		if r.Coordinates == nil {
			continue
		}
		if km := distanceKm(lat, lon, r.Coordinates.Latitude, r.Coordinates.Longitude); km < bestKm {
			best, bestKm = i, km
		}
	}
	if best < 0 {
		return Record{}, 0, false
	}
	return c.records[best].clone(), bestKm, true
}

// ZoneAt resolves arbitrary coordinates to an IANA identifier using the
// offline boundary tables. It reports false over oceans and invalid points.
func ZoneAt(lat, lon float64) (string, bool) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", false
	}
	zone := latlong.LookupZoneName(lat, lon)
	if zone == "" {
		return "", false
	}
	if _, err := loadZone(zone); err != nil {
		return "", false
	}
	return zone, true
}

// distanceKm is the haversine great-circle distance.
func distanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
