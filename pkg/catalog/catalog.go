// Package catalog holds the immutable table of world cities shown by paratime
// and the host-derived list of every timezone identifier.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidCatalog reports a malformed city table.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Coordinates locate a city for the map picker.
type Coordinates struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
}

// Record is one city of the catalog.
type Record struct {
	Coordinates *Coordinates `yaml:"coordinates,omitempty" json:"coordinates,omitempty"`
	City        string       `yaml:"city" json:"city"`
	TimezoneID  string       `yaml:"timezone" json:"timezone"`
	CountryCode string       `yaml:"country,omitempty" json:"country_code,omitempty"`
}

// Catalog is an ordered, immutable set of records keyed by timezone.
// It is built once at startup and only ever handed out by copy.
type Catalog struct {
	byZone  map[string]int
	records []Record
}

// defaultRecords mirrors the cities offered by the original converter.
var defaultRecords = []Record{
	{City: "Londres", TimezoneID: "Europe/London", CountryCode: "GB", Coordinates: &Coordinates{51.5074, -0.1278}},
	{City: "Paris", TimezoneID: "Europe/Paris", CountryCode: "FR", Coordinates: &Coordinates{48.8566, 2.3522}},
	{City: "Berlin", TimezoneID: "Europe/Berlin", CountryCode: "DE", Coordinates: &Coordinates{52.5200, 13.4050}},
	{City: "New York", TimezoneID: "America/New_York", CountryCode: "US", Coordinates: &Coordinates{40.7128, -74.0060}},
	{City: "Los Angeles", TimezoneID: "America/Los_Angeles", CountryCode: "US", Coordinates: &Coordinates{34.0522, -118.2437}},
	{City: "Tokyo", TimezoneID: "Asia/Tokyo", CountryCode: "JP", Coordinates: &Coordinates{35.6762, 139.6503}},
	{City: "Sydney", TimezoneID: "Australia/Sydney", CountryCode: "AU", Coordinates: &Coordinates{-33.8688, 151.2093}},
	{City: "Moscou", TimezoneID: "Europe/Moscow", CountryCode: "RU", Coordinates: &Coordinates{55.7558, 37.6173}},
	{City: "Dubai", TimezoneID: "Asia/Dubai", CountryCode: "AE", Coordinates: &Coordinates{25.2048, 55.2708}},
	{City: "Singapour", TimezoneID: "Asia/Singapore", CountryCode: "SG", Coordinates: &Coordinates{1.3521, 103.8198}},
	{City: "São Paulo", TimezoneID: "America/Sao_Paulo", CountryCode: "BR", Coordinates: &Coordinates{-23.5505, -46.6333}},
}

// Default returns the built-in city table.
func Default() *Catalog {
	c, err := New(defaultRecords)
	if err != nil {
		panic(err) // static table
	}
	return c
}

// New validates records and freezes them into a Catalog.
func New(records []Record) (*Catalog, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no cities", ErrInvalidCatalog)
	}

	c := &Catalog{
		records: make([]Record, 0, len(records)),
		byZone:  make(map[string]int, len(records)),
	}
	for i, r := range records {
		r.City = strings.TrimSpace(r.City)
		r.TimezoneID = strings.TrimSpace(r.TimezoneID)
		r.CountryCode = strings.ToUpper(strings.TrimSpace(r.CountryCode))
		if r.City == "" || r.TimezoneID == "" {
			return nil, fmt.Errorf("%w: record %d needs a city and a timezone", ErrInvalidCatalog, i)
		}
		if _, dup := c.byZone[r.TimezoneID]; dup {
			return nil, fmt.Errorf("%w: duplicate timezone %q", ErrInvalidCatalog, r.TimezoneID)
		}
		if p := r.Coordinates; p != nil {
			if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
				return nil, fmt.Errorf("%w: %s coordinates out of range", ErrInvalidCatalog, r.City)
			}
			cp := *p
			r.Coordinates = &cp
		}
		c.byZone[r.TimezoneID] = len(c.records)
		c.records = append(c.records, r)
	}
	return c, nil
}

// Load reads a YAML city table:
//
//	cities:
//	  - city: Paris
//	    timezone: Europe/Paris
//	    country: FR
//	    coordinates: {latitude: 48.8566, longitude: 2.3522}
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML city table.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Cities []Record `yaml:"cities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return New(doc.Cities)
}

// Len returns the number of cities.
func (c *Catalog) Len() int { return len(c.records) }

// Records returns the cities in catalog order.
func (c *Catalog) Records() []Record {
	out := make([]Record, len(c.records))
	for i, r := range c.records {
		out[i] = r.clone()
	}
	return out
}

// Lookup finds the city registered for timezoneID.
func (c *Catalog) Lookup(timezoneID string) (Record, bool) {
	i, ok := c.byZone[timezoneID]
	if !ok {
		return Record{}, false
	}
	return c.records[i].clone(), true
}

// Targets returns every city except the one in sourceID, the list the
// converted view shows.
func (c *Catalog) Targets(sourceID string) []Record {
	out := make([]Record, 0, len(c.records))
	for _, r := range c.records {
		if r.TimezoneID != sourceID {
			out = append(out, r.clone())
		}
	}
	return out
}

// Unrecognized lists catalog timezones the host database cannot load.
func (c *Catalog) Unrecognized() []string {
	var bad []string
	for _, r := range c.records {
		if _, err := loadZone(r.TimezoneID); err != nil {
			bad = append(bad, r.TimezoneID)
		}
	}
	return bad
}

func (r Record) clone() Record {
	if r.Coordinates != nil {
		cp := *r.Coordinates
		r.Coordinates = &cp
	}
	return r
}

func loadZone(id string) (*time.Location, error) {
	if id == "" || id == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrTimezoneUnavailable, id)
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrTimezoneUnavailable, id, err)
	}
	return loc, nil
}
