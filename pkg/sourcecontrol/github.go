package sourcecontrol

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/nugetaudit/pkg/integrations"
	"github.com/matzehuels/nugetaudit/pkg/integrations/github"
)

const githubHostMarker = "://github.com/"

// GitHub reads repository metadata from the GitHub API.
type GitHub struct {
	client *github.Client
}

// NewGitHub creates a GitHub provider using client.
func NewGitHub(client *github.Client) *GitHub {
	return &GitHub{client}
}

func (g *GitHub) Name() string { return "github" }

// Supports reports whether url points at github.com over http or https.
// git+, git@ and git:// spellings are accepted too.
func (g *GitHub) Supports(url string) bool {
	u := strings.ToLower(integrations.NormalizeRepoURL(url))
	return strings.HasPrefix(u, "https://github.com") || strings.HasPrefix(u, "http://github.com")
}

// Fetch reads the repository behind url. The response is cached under url
// as given; only owner and repository come from the normalized form.
func (g *GitHub) Fetch(ctx context.Context, url string) (*Metadata, error) {
	repoURL := integrations.NormalizeRepoURL(url)
	owner, repo, err := ParseGitHubURL(repoURL)
	if err != nil {
		return nil, err
	}

	r, err := g.client.FetchRepository(ctx, url, owner, repo)
	if err != nil {
		return nil, err
	}
	return &Metadata{
		Provider:  g.Name(),
		URL:       repoURL,
		Owner:     owner,
		Repo:      repo,
		Archived:  r.Archived,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		PushedAt:  r.PushedAt,
	}, nil
}

// ParseGitHubURL extracts the organization and repository from a github.com
// URL. Path segments after the repository, query strings and fragments are
// ignored; a trailing ".git" is trimmed.
func ParseGitHubURL(url string) (owner, repo string, err error) {
	i := strings.Index(strings.ToLower(url), githubHostMarker)
	if i < 0 {
		return "", "", fmt.Errorf("%w: %q: expected %q", ErrInvalidURL, url, githubHostMarker)
	}
	path := url[i+len(githubHostMarker):]
	if j := strings.IndexAny(path, "?#"); j >= 0 {
		path = path[:j]
	}

	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		return "", "", fmt.Errorf("%w: %q: expected organization and repository", ErrInvalidURL, url)
	}
	owner = segments[0]
	repo = strings.TrimSuffix(segments[1], ".git")
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("%w: %q: expected organization and repository", ErrInvalidURL, url)
	}
	return owner, repo, nil
}
