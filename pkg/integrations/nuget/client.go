package nuget

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/matzehuels/nugetaudit/pkg/buildinfo"
	"github.com/matzehuels/nugetaudit/pkg/cache"
	"github.com/matzehuels/nugetaudit/pkg/integrations"
)

// DefaultBaseURL is nuget.org's gzip-compressed, SemVer 2.0 registration hive.
const DefaultBaseURL = "https://api.nuget.org/v3/registration5-gz-semver2"

// Client provides access to the NuGet registration API.
// It handles HTTP requests with caching and gzip decoding.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a registration client backed by c.
// Pass nil or a [cache.NullCache] to disable caching.
func NewClient(c cache.Cache) *Client {
	headers := map[string]string{
		"Accept":     "application/json",
		"User-Agent": buildinfo.UserAgent(),
	}
	return &Client{
		Client:  integrations.NewClient(c, headers),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another registration hive and returns c.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimSuffix(base, "/")
	return c
}

// BaseURL returns the registration hive the client reads from.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchCatalogRoot returns the decompressed registration index for id.
// The id is lower-cased before use.
func (c *Client) FetchCatalogRoot(ctx context.Context, id string) ([]byte, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	rootURL := fmt.Sprintf("%s/%s/index.json", c.baseURL, url.PathEscape(id))

	data, err := c.Cached(ctx, RootKey(id), "catalog", func(ctx context.Context) ([]byte, error) {
		return c.GetBytes(ctx, rootURL)
	})
	if err != nil {
		return nil, fmt.Errorf("catalog root %s: %w", id, err)
	}
	return data, nil
}

// FetchCatalogPage returns the decompressed registration page at pageID,
// which must be the page's full URL.
func (c *Client) FetchCatalogPage(ctx context.Context, pageID string) ([]byte, error) {
	return c.Cached(ctx, PageKey(c.baseURL, pageID), "page", func(ctx context.Context) ([]byte, error) {
		return c.GetBytes(ctx, pageID)
	})
}

// FetchEntries fetches the registration index for id and flattens it,
// fetching split pages as needed.
func (c *Client) FetchEntries(ctx context.Context, id string) ([]VersionEntry, error) {
	root, err := c.FetchCatalogRoot(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewAssembler(c).Entries(ctx, root)
}

// RootKey is the cache key of a registration index.
func RootKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id)) + ".json"
}

// PageKey is the cache key of a split registration page. For pages under
// base it joins the package part and the bounds part of the path, e.g.
// "serilog/page/1.0.0/2.0.0.json" becomes "serilog.page.1.0.0-2.0.0.json".
// Page ids outside base are used verbatim.
func PageKey(base, pageID string) string {
	rest, ok := strings.CutPrefix(pageID, strings.TrimSuffix(base, "/")+"/")
	if !ok {
		return pageID
	}
	pkg, bounds, ok := strings.Cut(rest, splitPageMarker)
	if !ok || pkg == "" || bounds == "" {
		return pageID
	}
	return strings.ToLower(pkg) + ".page." + strings.ReplaceAll(bounds, "/", "-")
}
