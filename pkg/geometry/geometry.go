// Package geometry loads the world outline drawn behind the map picker.
//
// The outline is fetched at most once per process. Any failure falls back
// to a coarse embedded outline for the rest of the session, and the page
// keeps working either way.
package geometry

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/paratime/pkg/constants"
	"github.com/codeGROOVE-dev/paratime/pkg/httpcache"
)

//go:embed fallback.json
var fallbackTopology []byte

// ErrNotTopology reports a body that is not a usable TopoJSON topology.
var ErrNotTopology = errors.New("not a TopoJSON topology")

// Source tells where a Geometry came from.
type Source int

const (
	// Fallback is the embedded outline.
	Fallback Source = iota
	// Loaded is the remote world geometry.
	Loaded
)

func (s Source) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "fallback"
}

// MarshalText renders the source as "loaded" or "fallback".
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Geometry is the outcome of the session's single fetch.
type Geometry struct {
	Data   json.RawMessage `json:"data"`
	Notice string          `json:"notice,omitempty"`
	Source Source          `json:"source"`
}

// FallbackGeometry returns the embedded outline with its user notice.
func FallbackGeometry() Geometry {
	return Geometry{
		Source: Fallback,
		Data:   json.RawMessage(fallbackTopology),
		Notice: constants.GeometryFallbackNotice,
	}
}

// Fetcher retrieves a URL body. *httpcache.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) (httpcache.Response, error)
}

// Loader performs the one fetch of a session.
type Loader struct {
	client  Fetcher
	logger  *slog.Logger
	done    chan struct{}
	url     string
	result  Geometry
	timeout time.Duration
	once    sync.Once
}

// NewLoader creates a loader for url. An empty url disables the fetch and
// the loader always yields the fallback.
func NewLoader(url string, client Fetcher, opts ...Option) *Loader {
	o := &options{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if client == nil {
		client = httpcache.NewClient(nil, nil, o.logger)
	}
	return &Loader{
		url:     url,
		client:  client,
		logger:  o.logger,
		timeout: o.timeout,
		done:    make(chan struct{}),
	}
}

// Start runs the fetch in the background. It is safe to call more than once.
func (l *Loader) Start(ctx context.Context) {
	go l.Load(ctx)
}

// Load blocks until the session's geometry is known. Only the first call
// fetches; every later call returns the same result.
func (l *Loader) Load(ctx context.Context) Geometry {
	l.once.Do(func() {
		l.result = l.fetch(ctx)
		close(l.done)
	})
	return l.result
}

// Current returns the geometry without blocking. ok is false while the
// fetch is still in flight.
func (l *Loader) Current() (g Geometry, ok bool) {
	select {
	case <-l.done:
		return l.result, true
	default:
		return Geometry{}, false
	}
}

func (l *Loader) fetch(ctx context.Context) Geometry {
	if l.url == "" {
		l.logger.Info("geometry fetch disabled, using fallback outline")
		return FallbackGeometry()
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	resp, err := l.client.Get(ctx, l.url)
	if err == nil {
		err = validate(resp.Body)
	}
	if err != nil {
		l.logger.Warn("world geometry unavailable, using fallback outline",
			"url", l.url, "error", err, "elapsed", time.Since(start))
		return FallbackGeometry()
	}

	l.logger.Info("world geometry loaded", "url", l.url, "bytes", len(resp.Body),
		"from_cache", resp.FromCache, "elapsed", time.Since(start))
	return Geometry{Source: Loaded, Data: json.RawMessage(resp.Body)}
}

// validate checks that data is a topology with at least one object.
func validate(data []byte) error {
	var topo struct {
		Objects map[string]json.RawMessage `json:"objects"`
		Type    string                     `json:"type"`
	}
	if err := json.Unmarshal(data, &topo); err != nil {
		return fmt.Errorf("%w: %w", ErrNotTopology, err)
	}
	if topo.Type != "Topology" || len(topo.Objects) == 0 {
		return fmt.Errorf("%w: type %q with %d objects", ErrNotTopology, topo.Type, len(topo.Objects))
	}
	return nil
}
