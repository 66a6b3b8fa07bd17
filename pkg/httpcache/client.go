package httpcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// ErrStatus reports a non-200 response.
var ErrStatus = errors.New("unexpected HTTP status")

// maxBody bounds how much of a response is read into memory.
const maxBody = 32 << 20

// Doer is the subset of *http.Client the Client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is a fully read response body.
type Response struct {
	ContentType string
	Body        []byte
	FromCache   bool
}

// Client performs single-attempt GET requests, serving repeats from a Cache.
type Client struct {
	cache  *Cache
	doer   Doer
	logger *slog.Logger
}

// NewClient wraps doer. A nil cache disables caching; a nil doer uses
// http.DefaultClient.
func NewClient(cache *Cache, doer Doer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cache: cache, doer: doer, logger: logger}
}

// Get fetches url once. There is no retry: any transport error or non-200
// status is returned to the caller.
func (c *Client) Get(ctx context.Context, url string) (Response, error) {
	if c.cache != nil {
		if entry, ok := c.cache.Get(url); ok {
			c.logger.Debug("serving from cache", "url", url, "size", len(entry.Data))
			return Response{Body: entry.Data, ContentType: entry.ContentType, FromCache: true}, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "paratime/1.0")

	resp, err := c.doer.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("%w: %s returned %d", ErrStatus, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Response{}, fmt.Errorf("reading %s: %w", url, err)
	}

	ct := resp.Header.Get("Content-Type")
	if c.cache != nil {
		c.cache.Set(url, body, resp.Header.Get("ETag"), ct)
	}
	return Response{Body: body, ContentType: ct}, nil
}
