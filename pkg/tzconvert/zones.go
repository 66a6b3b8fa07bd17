package tzconvert

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/maypok86/otter/v2"
)

// Loader resolves IANA identifiers to locations.
type Loader interface {
	Load(id string) (*time.Location, error)
}

// HostLoader reads the host timezone database on every call.
type HostLoader struct{}

// Load implements Loader.
func (HostLoader) Load(id string) (*time.Location, error) {
	return LoadZone(id)
}

// LoadZone loads id from the host database. The empty string and "Local"
// are rejected: time.LoadLocation maps them to UTC and the machine zone,
// neither of which is an IANA identifier a user selected.
func LoadZone(id string) (*time.Location, error) {
	if id == "" || id == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezoneID, id)
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidTimezoneID, id, err)
	}
	return loc, nil
}

// Zones memoizes host locations so repeated projections skip the zoneinfo read.
// Only successful loads are kept; unknown identifiers are re-checked each time.
type Zones struct {
	cache  *otter.Cache[string, *time.Location]
	logger *slog.Logger
}

// NewZones creates a memoizing Loader.
func NewZones(logger *slog.Logger) *Zones {
	if logger == nil {
		logger = slog.Default()
	}
	return &Zones{
		cache: otter.Must(&otter.Options[string, *time.Location]{
			MaximumSize:     1024,
			InitialCapacity: 64,
		}),
		logger: logger,
	}
}

// Load implements Loader.
func (z *Zones) Load(id string) (*time.Location, error) {
	if loc, ok := z.cache.GetIfPresent(id); ok {
		return loc, nil
	}
	loc, err := LoadZone(id)
	if err != nil {
		z.logger.Debug("zone lookup failed", "timezone", id, "error", err)
		return nil, err
	}
	z.cache.Set(id, loc)
	return loc, nil
}
