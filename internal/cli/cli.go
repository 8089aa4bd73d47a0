// Package cli implements the nugetaudit command-line interface.
//
// # Commands
//
//   - audit: Audit one or more packages and print the reports
//   - interactive: Prompt for packages to audit, one at a time
//   - serve: Expose audits over HTTP
//   - cache: Manage the response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs every registry request and cache lookup.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nugetaudit/pkg/audit"
	"github.com/matzehuels/nugetaudit/pkg/buildinfo"
	"github.com/matzehuels/nugetaudit/pkg/cache"
	"github.com/matzehuels/nugetaudit/pkg/integrations/github"
	"github.com/matzehuels/nugetaudit/pkg/integrations/nuget"
	"github.com/matzehuels/nugetaudit/pkg/sourcecontrol"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "nugetaudit"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level, registry
// requests and cache lookups are logged too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		registerLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "nugetaudit finds deprecated NuGet packages",
		Long:         `nugetaudit checks whether a NuGet package version is deprecated, either on the registry itself or because its GitHub repository is archived or no longer pushed to.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.loadConfig()
			return err
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/nugetaudit/config.toml)")

	root.AddCommand(c.auditCommand())
	root.AddCommand(c.interactiveCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration once per process.
func (c *CLI) loadConfig() (*Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := loadConfig(c.configPath, c.configPath != "")
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

// =============================================================================
// Auditor Factory
// =============================================================================

// newAuditor wires the registry and GitHub clients around the configured
// cache. The caller closes the returned cache.
func (c *CLI) newAuditor(ctx context.Context, noCache bool) (*audit.Auditor, cache.Cache, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := newCache(ctx, cfg.Cache, noCache, c.Logger)
	if err != nil {
		return nil, nil, err
	}

	gh := github.NewClient(store, cfg.GitHub.Token).WithBaseURL(cfg.GitHub.APIURL)
	if cfg.GitHub.APIURL != github.DefaultBaseURL {
		gh.WithNamespace(cacheNamespace(cfg.GitHub.APIURL))
	}
	catalog := nuget.NewClient(store).WithBaseURL(cfg.NuGet.BaseURL)
	if cfg.NuGet.BaseURL != nuget.DefaultBaseURL {
		catalog.WithNamespace(cacheNamespace(cfg.NuGet.BaseURL))
	}
	a := audit.New(audit.Options{
		Catalog:       catalog,
		SourceControl: sourcecontrol.NewFetcher(sourcecontrol.NewGitHub(gh)),
		Logger:        c.Logger,
	})
	return a, store, nil
}

// newCache opens the configured cache. For the file strategy the folder is
// created on first use; without a folder caching is disabled.
func newCache(ctx context.Context, cfg CacheConfig, noCache bool, logger *log.Logger) (cache.Cache, error) {
	if noCache {
		logger.Debug("cache disabled by flag")
		return cache.NewNullCache(), nil
	}
	opts, err := cfg.cacheOptions()
	if err != nil {
		return nil, err
	}
	if opts.Strategy == cache.StrategyFile {
		if opts.Dir == "" {
			logger.Warn("no cache directory configured, caching disabled")
			return cache.NewNullCache(), nil
		}
		if _, err := os.Stat(opts.Dir); errors.Is(err, fs.ErrNotExist) {
			logger.Debug("creating cache directory", "dir", opts.Dir)
		}
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	logger.Debug("cache opened", "strategy", opts.Strategy)
	return cache.New(ctx, opts)
}

// cacheNamespace scopes cache keys to a non-default upstream, e.g.
// "https://nuget.example.com/v3/registration" becomes
// "nuget.example.com/v3/registration".
func cacheNamespace(base string) string {
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		return strings.TrimSuffix(u.Host+u.Path, "/")
	}
	return base
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/nugetaudit/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
