package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/matzehuels/nugetaudit/pkg/buildinfo"
	"github.com/matzehuels/nugetaudit/pkg/cache"
	"github.com/matzehuels/nugetaudit/pkg/integrations"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

// Client provides access to the GitHub API for repository metadata.
// It handles HTTP requests with caching and optional authentication.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client backed by c.
// Pass an empty string for token to use unauthenticated requests (lower rate limits).
func NewClient(c cache.Cache, token string) *Client {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
		"User-Agent":           buildinfo.UserAgent(),
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	return &Client{
		Client:  integrations.NewClient(c, headers),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another API host (GitHub Enterprise or a
// test server) and returns c.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimSuffix(base, "/")
	return c
}

// FetchRepository retrieves repository metadata for owner/repo. The raw
// response is cached under repoURL + ".json", so the same project URL is
// answered from the cache on later audits.
func (c *Client) FetchRepository(ctx context.Context, repoURL, owner, repo string) (*Repository, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, url.PathEscape(owner), url.PathEscape(repo))

	data, err := c.Cached(ctx, CacheKey(repoURL), "repository", func(ctx context.Context) ([]byte, error) {
		return c.GetBytes(ctx, apiURL)
	})
	if err != nil {
		return nil, fmt.Errorf("github repo %s/%s: %w", owner, repo, err)
	}
	return ParseRepository(data)
}

// CacheKey is the cache key of the repository document for repoURL.
func CacheKey(repoURL string) string {
	return repoURL + ".json"
}
