package integrations

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/matzehuels/nugetaudit/pkg/cache"
	"github.com/matzehuels/nugetaudit/pkg/observability"
)

// Client provides shared HTTP functionality for the registry and
// source-control API clients. It handles caching, decompression, and common
// request headers. No request is ever retried.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keys      cache.Keyer
	namespace string
	headers   map[string]string
}

// NewClient creates a Client with the given cache and default headers.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed, and a nil cache to
// disable caching.
func NewClient(c cache.Cache, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    NewHTTPClient(),
		cache:   c,
		keys:    cache.NewDefaultKeyer(),
		headers: headers,
	}
}

// WithHTTPClient replaces the underlying HTTP client and returns c.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// WithKeyer replaces the key derivation and returns c.
func (c *Client) WithKeyer(k cache.Keyer) *Client {
	c.keys = k
	return c
}

// WithNamespace scopes every cache key of c, so responses from a mirror or
// an enterprise host never answer lookups meant for the public one.
func (c *Client) WithNamespace(ns string) *Client {
	c.namespace = ns
	return c
}

// Cache returns the cache backing this client.
func (c *Client) Cache() cache.Cache { return c.cache }

// Cached returns the bytes stored under key (as derived by the client's
// [cache.Keyer] and namespace), or calls fetch on a miss and
// stores its result. keyType labels the lookup for observability hooks.
// Cache read and write failures degrade to a miss and a skipped write.
func (c *Client) Cached(ctx context.Context, key, keyType string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	key = c.keys.HTTPKey(c.namespace, key)
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, keyType)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, keyType)

	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, data); err == nil {
		observability.Cache().OnCacheSet(ctx, keyType, len(data))
	}
	return data, nil
}

// GetBytes performs an HTTP GET request and returns the decompressed body.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	return c.GetBytesWithHeaders(ctx, rawURL, nil)
}

// GetBytesWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetBytesWithHeaders(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(req.URL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	return Decompress(body)
}

// Decompress inflates body when it starts with the gzip magic number and
// returns it unchanged otherwise. Bodies sent with Content-Encoding: gzip are
// already inflated by the transport and arrive here as plain bytes.
func Decompress(body []byte) ([]byte, error) {
	if !isGzip(body) {
		return body, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrNetwork, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrNetwork, err)
	}
	return out, nil
}

func isGzip(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

func hostPath(u *url.URL) (string, string) {
	if u == nil {
		return "", ""
	}
	return u.Host, u.Path
}

func checkStatus(code int) error {
	switch code {
	case http.StatusOK, http.StatusNotModified:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
