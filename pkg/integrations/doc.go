// Package integrations provides HTTP clients for the APIs an audit talks to.
//
// # Overview
//
// This package contains the shared transport used by the upstream clients.
// Each upstream has its own subpackage:
//
//   - [nuget]: NuGet registration (catalog) documents
//   - [github]: GitHub repository metadata
//
// # Client Pattern
//
// Upstream clients embed [Client] and fetch raw bytes through the cache:
//
//	data, err := c.Cached(ctx, key, "catalog", func(ctx context.Context) ([]byte, error) {
//	    return c.GetBytes(ctx, url)
//	})
//
// The bytes stored in the cache are always the decompressed response body,
// so any cache strategy can be shared by every client.
//
// # Errors
//
// A 404 response maps to [ErrNotFound]; every other failure maps to
// [ErrNetwork]. Callers distinguish the two with errors.Is. Requests are
// never retried and throttling responses are reported like any other status.
//
// [nuget]: github.com/matzehuels/nugetaudit/pkg/integrations/nuget
// [github]: github.com/matzehuels/nugetaudit/pkg/integrations/github
package integrations
