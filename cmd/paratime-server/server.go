package main

import (
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/maypok86/otter/v2"

	"github.com/codeGROOVE-dev/paratime/pkg/catalog"
	"github.com/codeGROOVE-dev/paratime/pkg/geometry"
	"github.com/codeGROOVE-dev/paratime/pkg/tzconvert"
)

const requestIDHeader = "X-Request-ID"

type rateLimiter struct {
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	mu       sync.Mutex
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[ip] = valid
		return false
	}
	rl.requests[ip] = append(valid, now)
	return true
}

type server struct {
	catalog    *catalog.Catalog
	engine     *tzconvert.Engine
	geometry   *geometry.Loader
	cache      *otter.Cache[string, []byte]
	limiter    *rateLimiter
	logger     *slog.Logger
	home       *template.Template
	zoneIDs    []string
	defaultTZ  string
	corsOrigin []string
	corsMaxAge int
}

type serverConfig struct {
	catalog    *catalog.Catalog
	geometry   *geometry.Loader
	logger     *slog.Logger
	defaultTZ  string
	corsOrigin []string
	corsMaxAge int
	rateLimit  int
	rateWindow time.Duration
}

func newServer(cfg serverConfig) *server {
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &server{
		catalog:  cfg.catalog,
		engine:   tzconvert.New(tzconvert.NewZones(logger)),
		geometry: cfg.geometry,
		cache: otter.Must(&otter.Options[string, []byte]{
			MaximumSize:      10_000,
			ExpiryCalculator: otter.ExpiryWriting[string, []byte](time.Hour),
		}),
		limiter:    newRateLimiter(cfg.rateLimit, cfg.rateWindow),
		logger:     logger,
		home:       template.Must(template.New("home").Funcs(templateFuncs).Parse(homeTemplate)),
		zoneIDs:    catalog.ListAllTimezoneIDs(),
		defaultTZ:  cfg.defaultTZ,
		corsOrigin: cfg.corsOrigin,
		corsMaxAge: cfg.corsMaxAge,
	}
}

// routes builds the full handler chain.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.wrap)
	if len(s.corsOrigin) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigin,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         s.corsMaxAge,
		}))
	}

	r.Get("/", s.handleHome)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/convert", s.handleConvert)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/timezones", s.handleTimezones)
		r.Get("/geometry", s.handleGeometry)
		r.Get("/locate", s.handleLocate)
	})

	return http.NewCrossOriginProtection().Handler(r)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *server) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set(requestIDHeader, requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]
				s.logger.Error("PANIC: request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP(r),
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=(), usb=()")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"connect-src 'self'")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store")
		}

		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request served",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiter.allow(ip) {
			s.logger.Warn("rate limit exceeded",
				"request_id", w.Header().Get(requestIDHeader),
				"client_ip", ip,
				"path", r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
