package board

import (
	"log/slog"

	"github.com/codeGROOVE-dev/paratime/pkg/tzconvert"
)

// Option configures a Board.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	zones     tzconvert.Loader
	listeners []Listener
}

// WithLogger sets the logger used for recompute events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithZones sets the zone loader. Defaults to a memoizing host loader.
func WithZones(zones tzconvert.Loader) Option {
	return func(o *options) {
		o.zones = zones
	}
}

// WithListener registers fn to run after every effective recompute.
func WithListener(fn Listener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, fn)
	}
}
