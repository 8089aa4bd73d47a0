// Package github provides an HTTP client for the GitHub API.
//
// # Overview
//
// This package fetches repository metadata from GitHub (https://api.github.com)
// so an audit can tell whether a package's source repository is archived or
// has gone quiet.
//
// # Usage
//
//	client := github.NewClient(cache.NewMemoryCache(), os.Getenv("GITHUB_TOKEN"))
//
//	repo, err := client.FetchRepository(ctx, "https://github.com/serilog/serilog", "serilog", "serilog")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Archived:", repo.Archived)
//	fmt.Println("Last push:", repo.PushedAt)
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour. Rate-limit responses are
// reported as [integrations.ErrNetwork]; nothing is retried.
//
// # Caching
//
// The raw response body is cached under the project URL with a ".json"
// suffix. Entries never expire.
//
// [integrations.ErrNetwork]: github.com/matzehuels/nugetaudit/pkg/integrations.ErrNetwork
package github
