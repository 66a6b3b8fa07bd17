package geometry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeGROOVE-dev/paratime/pkg/catalog"
	"github.com/codeGROOVE-dev/paratime/pkg/constants"
	"github.com/codeGROOVE-dev/paratime/pkg/httpcache"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const worldTopology = `{"type":"Topology","objects":{"countries":{"type":"GeometryCollection","geometries":[]}},"arcs":[]}`

type stubFetcher struct {
	err   error
	body  string
	calls atomic.Int32
}

func (s *stubFetcher) Get(context.Context, string) (httpcache.Response, error) {
	s.calls.Add(1)
	if s.err != nil {
		return httpcache.Response{}, s.err
	}
	return httpcache.Response{Body: []byte(s.body)}, nil
}

func TestEmbeddedFallbackIsTopology(t *testing.T) {
	g := FallbackGeometry()
	assert.Equal(t, Fallback, g.Source)
	assert.Equal(t, constants.GeometryFallbackNotice, g.Notice)
	assert.NoError(t, validate(g.Data))
}

func TestLoadSuccess(t *testing.T) {
	f := &stubFetcher{body: worldTopology}
	l := NewLoader("https://example.com/world.json", f, WithLogger(quietLogger()))

	_, ok := l.Current()
	assert.False(t, ok, "nothing loaded before the first Load")

	g := l.Load(context.Background())
	assert.Equal(t, Loaded, g.Source)
	assert.Empty(t, g.Notice)
	assert.JSONEq(t, worldTopology, string(g.Data))

	cur, ok := l.Current()
	require.True(t, ok)
	assert.Equal(t, Loaded, cur.Source)
}

func TestLoadFailuresFallBack(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *stubFetcher
	}{
		{"transport error", &stubFetcher{err: errors.New("connection refused")}},
		{"not json", &stubFetcher{body: "<html>rate limited</html>"}},
		{"geojson instead of topojson", &stubFetcher{body: `{"type":"FeatureCollection","features":[]}`}},
		{"empty topology", &stubFetcher{body: `{"type":"Topology","objects":{}}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader("https://example.com/world.json", tt.fetcher, WithLogger(quietLogger()))
			g := l.Load(context.Background())
			assert.Equal(t, Fallback, g.Source)
			assert.NotEmpty(t, g.Notice)
		})
	}
}

func TestLoadFetchesOncePerSession(t *testing.T) {
	f := &stubFetcher{err: errors.New("boom")}
	l := NewLoader("https://example.com/world.json", f, WithLogger(quietLogger()))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, Fallback, l.Load(context.Background()).Source)
		}()
	}
	wg.Wait()

	// The failure is final: no retry on later calls.
	l.Load(context.Background())
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestLoadDisabled(t *testing.T) {
	f := &stubFetcher{body: worldTopology}
	l := NewLoader("", f, WithLogger(quietLogger()))
	assert.Equal(t, Fallback, l.Load(context.Background()).Source)
	assert.Zero(t, f.calls.Load())
}

func TestLoadThroughHTTPCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(worldTopology)) //nolint:errcheck // test server
	}))
	defer srv.Close()

	cache := httpcache.NewMemory(time.Hour, quietLogger())
	client := httpcache.NewClient(cache, srv.Client(), quietLogger())

	first := NewLoader(srv.URL, client, WithLogger(quietLogger()))
	first.Start(context.Background())
	assert.Equal(t, Loaded, first.Load(context.Background()).Source)

	// A second session sharing the cache does not hit the network.
	second := NewLoader(srv.URL, client, WithLogger(quietLogger()))
	assert.Equal(t, Loaded, second.Load(context.Background()).Source)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGeometryJSON(t *testing.T) {
	data, err := json.Marshal(FallbackGeometry())
	require.NoError(t, err)

	var decoded struct {
		Source string `json:"source"`
		Notice string `json:"notice"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "fallback", decoded.Source)
	assert.Equal(t, constants.GeometryFallbackNotice, decoded.Notice)
}

func TestMarkers(t *testing.T) {
	cat, err := catalog.New([]catalog.Record{
		{City: "Paris", TimezoneID: "Europe/Paris", Coordinates: &catalog.Coordinates{Latitude: 48.8566, Longitude: 2.3522}},
		{City: "Nowhere", TimezoneID: "UTC"},
		{City: "Tokyo", TimezoneID: "Asia/Tokyo", Coordinates: &catalog.Coordinates{Latitude: 35.6762, Longitude: 139.6503}},
	})
	require.NoError(t, err)

	markers := Markers(cat, "Asia/Tokyo")
	require.Len(t, markers, 2)

	paris := markers[0]
	assert.Equal(t, "Europe/Paris", paris.TimezoneID)
	assert.False(t, paris.Selected)
	assert.Equal(t, DefaultRadius, paris.Radius)
	assert.Equal(t, DefaultFill, paris.Fill)
	assert.Empty(t, paris.Label)

	tokyo := markers[1]
	assert.True(t, tokyo.Selected)
	assert.Equal(t, SelectedRadius, tokyo.Radius)
	assert.Equal(t, SelectedFill, tokyo.Fill)
	assert.Equal(t, "Tokyo", tokyo.Label)
	assert.InDelta(t, 139.6503, tokyo.Longitude, 1e-9)

	for _, m := range Markers(cat, "America/Chicago") {
		assert.False(t, m.Selected)
	}
}
