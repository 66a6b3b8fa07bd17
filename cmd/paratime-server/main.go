// Package main implements the paratime web server: a timezone converter
// with a clickable world map.
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeGROOVE-dev/paratime/pkg/catalog"
	"github.com/codeGROOVE-dev/paratime/pkg/config"
	"github.com/codeGROOVE-dev/paratime/pkg/constants"
	"github.com/codeGROOVE-dev/paratime/pkg/geometry"
	"github.com/codeGROOVE-dev/paratime/pkg/httpcache"
)

//go:embed templates/home.html
var homeTemplate string

var (
	port        = flag.String("port", "", "Port for web server (or set PARATIME_PORT)")
	catalogPath = flag.String("catalog", "", "YAML city catalog (or set PARATIME_CATALOG)")
	cacheDir    = flag.String("cache-dir", "", "Directory persisting fetched geometry (or set PARATIME_CACHE_DIR)")
	envFile     = flag.String("env-file", ".env", "Optional environment file")
	noGeometry  = flag.Bool("no-geometry", false, "Skip the world geometry fetch and use the built-in outline")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("paratime-server v%s\n", constants.Version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load(*envFile, logger)
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}
	if *noGeometry {
		cfg.GeometryURL = ""
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.Load(cfg.CatalogPath); err != nil {
			return err
		}
	}
	if missing := cat.Unrecognized(); len(missing) > 0 {
		logger.Warn("catalog zones unknown to this host will render as errors", "zones", missing)
	}

	logger.Info("server configuration",
		"port", cfg.Port,
		"verbose", *verbose,
		"cities", cat.Len(),
		"default_timezone", cfg.DefaultTimezone,
		"geometry_url", cfg.GeometryURL,
		"cache_dir", cfg.CacheDir,
		"cors_origins", cfg.CORS.AllowedOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache *httpcache.Cache
	if cfg.CacheDir != "" {
		if cache, err = httpcache.New(ctx, cfg.CacheDir, cfg.CacheTTL, logger); err != nil {
			return err
		}
	} else {
		cache = httpcache.NewMemory(cfg.CacheTTL, logger)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Error("failed to close cache", "error", err)
		}
	}()

	loader := geometry.NewLoader(cfg.GeometryURL,
		httpcache.NewClient(cache, &http.Client{Timeout: cfg.GeometryTimeout}, logger),
		geometry.WithLogger(logger),
		geometry.WithTimeout(cfg.GeometryTimeout))
	loader.Start(context.WithoutCancel(ctx))

	s := newServer(serverConfig{
		catalog:    cat,
		geometry:   loader,
		logger:     logger,
		defaultTZ:  cfg.DefaultTimezone,
		corsOrigin: cfg.CORS.AllowedOrigins,
		corsMaxAge: cfg.CORS.MaxAgeSeconds,
		rateLimit:  cfg.RateLimit.Requests,
		rateWindow: cfg.RateLimit.Window,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("server stopped")
	return nil
}
