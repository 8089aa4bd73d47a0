// Package sourcecontrol fetches repository metadata for a package's project
// URL and normalizes it into a provider-agnostic [Metadata].
//
// A [Fetcher] holds an ordered list of providers; the first provider that
// supports a URL handles it. URLs no provider supports yield
// [ErrNotApplicable], which callers treat as "no source-control signal"
// rather than a failure.
package sourcecontrol

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/nugetaudit/pkg/observability"
)

var (
	// ErrNotApplicable is returned when no provider recognizes a URL.
	ErrNotApplicable = errors.New("no source-control provider for url")

	// ErrInvalidURL is returned when a recognized URL lacks the segments a
	// provider needs (for GitHub, an organization and a repository).
	ErrInvalidURL = errors.New("invalid source-control url")
)

// Metadata is normalized repository metadata.
type Metadata struct {
	Provider  string    `json:"provider"`
	URL       string    `json:"url"`
	Owner     string    `json:"owner"`
	Repo      string    `json:"repo"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	PushedAt  time.Time `json:"pushed_at"`
}

// Provider fetches metadata from one hosting service.
type Provider interface {
	Name() string
	Supports(url string) bool
	Fetch(ctx context.Context, url string) (*Metadata, error)
}

// Fetcher dispatches project URLs to the first supporting provider.
type Fetcher struct {
	providers []Provider
}

// NewFetcher creates a Fetcher that tries providers in order.
func NewFetcher(providers ...Provider) *Fetcher {
	return &Fetcher{providers}
}

// FetchMetadata returns metadata for projectURL, or [ErrNotApplicable] when
// no provider supports it.
func (f *Fetcher) FetchMetadata(ctx context.Context, projectURL string) (*Metadata, error) {
	projectURL = strings.TrimSpace(projectURL)
	if projectURL == "" {
		return nil, ErrNotApplicable
	}
	for _, p := range f.providers {
		if !p.Supports(projectURL) {
			continue
		}
		start := time.Now()
		m, err := p.Fetch(ctx, projectURL)
		observability.Audit().OnSourceControl(ctx, p.Name(), projectURL, time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name(), err)
		}
		return m, nil
	}
	return nil, ErrNotApplicable
}
