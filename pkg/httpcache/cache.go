// Package httpcache keeps fetched HTTP bodies in memory, optionally
// persisting them to a gob snapshot so a restart does not refetch.
package httpcache

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

const (
	snapshotName = "paratime-cache.gob"
	saveInterval = 15 * time.Minute
	maxEntries   = 1_000
)

// Entry is one cached response body.
type Entry struct {
	ExpiresAt   time.Time `json:"expires_at"`
	ETag        string    `json:"etag,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Data        []byte    `json:"data"`
}

// Cache is an otter-backed body cache keyed by URL.
type Cache struct {
	cache      *otter.Cache[string, Entry]
	logger     *slog.Logger
	saveCancel context.CancelFunc
	dir        string
	saveWg     sync.WaitGroup
	ttl        time.Duration
	mu         sync.Mutex
}

// New creates a cache persisted under dir. Entries already on disk are
// loaded and a background goroutine saves a snapshot until ctx ends or Close
// is called.
func New(ctx context.Context, dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	c := NewMemory(ttl, logger)
	c.dir = dir

	if err := c.load(); err != nil {
		c.logger.Warn("failed to load cache from disk", "error", err)
	}
	c.logger.Info("cache initialized", "dir", dir, "entries_loaded", c.Len())

	saveCtx, cancel := context.WithCancel(ctx)
	c.saveCancel = cancel
	c.saveWg.Add(1)
	go func() {
		defer c.saveWg.Done()
		ticker := time.NewTicker(saveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-saveCtx.Done():
				return
			case <-ticker.C:
				if err := c.save(); err != nil {
					c.logger.Error("periodic cache save failed", "error", err)
				}
			}
		}
	}()

	return c, nil
}

// NewMemory creates a cache that never touches the disk.
func NewMemory(ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		cache: otter.Must(&otter.Options[string, Entry]{
			MaximumSize:      maxEntries,
			InitialCapacity:  16,
			ExpiryCalculator: otter.ExpiryWriting[string, Entry](ttl),
		}),
		ttl:    ttl,
		logger: logger,
	}
}

func key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached entry for url.
func (c *Cache) Get(url string) (Entry, bool) {
	k := key(url)
	entry, found := c.cache.GetIfPresent(k)
	if !found {
		c.logger.Debug("cache miss", "url", url)
		return Entry{}, false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.logger.Debug("cache miss", "url", url, "reason", "expired", "expired_at", entry.ExpiresAt)
		c.cache.Invalidate(k)
		return Entry{}, false
	}
	return entry, true
}

// Set stores data for url until the cache TTL elapses.
func (c *Cache) Set(url string, data []byte, etag, contentType string) {
	entry := Entry{
		Data:        data,
		ETag:        etag,
		ContentType: contentType,
		ExpiresAt:   time.Now().Add(c.ttl),
	}
	c.cache.Set(key(url), entry)
	c.logger.Debug("cache set", "url", url, "expires_at", entry.ExpiresAt, "size", len(data))
}

// Len returns the approximate number of cached entries.
func (c *Cache) Len() int {
	return c.cache.EstimatedSize()
}

// Close stops the periodic save and writes a final snapshot.
// Memory-only caches have nothing to do.
func (c *Cache) Close() error {
	if c.dir == "" {
		return nil
	}
	if c.saveCancel != nil {
		c.saveCancel()
	}
	c.saveWg.Wait()

	if err := c.save(); err != nil {
		c.logger.Error("final cache save failed", "error", err)
		return err
	}
	c.logger.Info("cache closed and saved to disk")
	return nil
}

func (c *Cache) load() error {
	path := filepath.Join(c.dir, snapshotName)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Info("no existing cache file found", "path", path)
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			c.logger.Debug("failed to close cache file", "error", closeErr)
		}
	}()

	var entries map[string]Entry
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache file: %w", err)
	}

	now := time.Now()
	valid := 0
	for k, entry := range entries {
		if now.Before(entry.ExpiresAt) {
			c.cache.Set(k, entry)
			valid++
		}
	}
	c.logger.Info("loaded cache from disk", "path", path,
		"total_entries", len(entries), "valid_entries", valid)
	return nil
}

func (c *Cache) save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := filepath.Join(c.dir, snapshotName)
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(tmp); removeErr != nil && !os.IsNotExist(removeErr) {
			c.logger.Debug("failed to remove temp file", "error", removeErr)
		}
	}()

	entries := make(map[string]Entry)
	now := time.Now()
	for k, entry := range c.cache.All() {
		if now.Before(entry.ExpiresAt) {
			entries[k] = entry
		}
	}

	if err := gob.NewEncoder(file).Encode(entries); err != nil {
		_ = file.Close() //nolint:errcheck // encode error takes precedence
		return fmt.Errorf("encoding cache to file: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close() //nolint:errcheck // sync error takes precedence
		return fmt.Errorf("syncing cache file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}

	c.logger.Info("cache saved to disk", "entries", len(entries), "path", path)
	return nil
}
