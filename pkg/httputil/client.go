package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/energyatlas/pkg/cache"
	"github.com/matzehuels/energyatlas/pkg/observability"
)

// defaultTimeout bounds a single request; retries are on top of it.
const defaultTimeout = 30 * time.Second

// Client fetches remote files with response caching and retry.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	headers map[string]string
}

// NewClient creates a Client backed by c. A nil cache disables caching and
// a nil keyer uses [cache.NewDefaultKeyer].
func NewClient(c cache.Cache, keyer cache.Keyer, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		cache:   c,
		keyer:   keyer,
		ttl:     ttl,
		headers: headers,
	}
}

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Fetch returns the body at rawURL, serving it from cache when present.
// namespace scopes the cache key ("dataset", "boundary").
// A 404 yields [cache.ErrNotFound] and is not cached.
func (c *Client) Fetch(ctx context.Context, namespace, rawURL string) ([]byte, error) {
	key := c.keyer.HTTPKey(namespace, rawURL)
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		observability.Cache().OnCacheHit(ctx, "http")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "http")

	var body []byte
	err := RetryWithBackoff(ctx, func() error {
		data, err := c.get(ctx, rawURL)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, body, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "http", len(body))
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := splitURL(rawURL)
	observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return cache.ErrNotFound
	case code >= 500:
		return Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", cache.ErrNetwork, code)
	}
}

func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.Path
}
