// Package config reads paratime settings from the environment.
//
// Variables use the PARATIME_ prefix, for example PARATIME_PORT or
// PARATIME_RATE_LIMIT_REQUESTS. A .env file in the working directory, when
// present, is loaded first; variables already set win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/codeGROOVE-dev/paratime/pkg/constants"
)

// Prefix is prepended to every variable name.
const Prefix = "PARATIME"

// Config holds settings shared by the CLI and the server. Flags override it.
type Config struct {
	// CatalogPath is an optional YAML catalog replacing the built-in cities.
	CatalogPath string `envconfig:"CATALOG"`
	// DefaultTimezone preselects the source zone when none is given.
	DefaultTimezone string `envconfig:"DEFAULT_TIMEZONE" default:"Europe/Paris"`
	// GeometryURL is the world TopoJSON for the map. Empty disables the fetch.
	GeometryURL string `envconfig:"GEOMETRY_URL"`
	// CacheDir persists fetched geometry across restarts. Empty keeps it in memory.
	CacheDir string `envconfig:"CACHE_DIR"`
	Port     string `envconfig:"PORT" default:"8080"`

	CORS struct {
		AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
		MaxAgeSeconds  int      `envconfig:"MAX_AGE_SECONDS" default:"300"`
	} `envconfig:"CORS"`

	RateLimit struct {
		Requests int           `envconfig:"REQUESTS" default:"60"`
		Window   time.Duration `envconfig:"WINDOW" default:"1m"`
	} `envconfig:"RATE_LIMIT"`

	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"24h"`
	GeometryTimeout time.Duration `envconfig:"GEOMETRY_TIMEOUT" default:"10s"`
}

// Load reads the optional .env file at envFile and then the environment.
func Load(envFile string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if envFile != "" {
		switch err := godotenv.Load(envFile); {
		case err == nil:
			logger.Debug("loaded environment file", "path", envFile)
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("no environment file", "path", envFile)
		default:
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := &Config{GeometryURL: constants.DefaultGeometryURL}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	return cfg, nil
}
