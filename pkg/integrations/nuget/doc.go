// Package nuget provides an HTTP client for the NuGet registration API.
//
// # Overview
//
// This package fetches the per-package registration ("catalog") documents
// published by nuget.org and flattens them into version entries:
//
//	root (index.json) → pages → package records → catalog entries
//
// Small packages inline every page in the root document. Large packages
// publish split pages: the root lists the page bounds and an @id URL
// containing "/page/", and the records must be fetched from that URL.
//
// # Usage
//
//	client := nuget.NewClient(cache.NewMemoryCache())
//
//	entries, err := client.FetchEntries(ctx, "Serilog")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range entries {
//	    fmt.Println(e.Version, e.Listed, e.Deprecation != nil)
//	}
//
// # Caching
//
// The decompressed root document is cached under "{id}.json" with the id
// lower-cased. Split pages are cached under a key derived from the package
// part and bounds part of the page URL. Entries never expire; clear the cache
// to pick up registry changes.
//
// # Errors
//
// A 404 from the registry is reported as [integrations.ErrNotFound].
// Documents that do not match the registration schema fail with [ErrSchema].
// [Assembler.Entries] reports [ErrNoPages] for a root without pages and
// [ErrNoPackages] when no page yields an entry.
//
// [integrations.ErrNotFound]: github.com/matzehuels/nugetaudit/pkg/integrations.ErrNotFound
package nuget
