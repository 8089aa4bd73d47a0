package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nugetaudit/pkg/audit"
	"github.com/matzehuels/nugetaudit/pkg/cache"
	errs "github.com/matzehuels/nugetaudit/pkg/errors"
	"github.com/matzehuels/nugetaudit/pkg/integrations/github"
	"github.com/matzehuels/nugetaudit/pkg/integrations/nuget"
)

// Environment variables that override the config file.
const (
	envGitHubToken = "GITHUB_TOKEN"
	envCache       = "NUGETAUDIT_CACHE"
)

// Config is the on-disk CLI configuration.
//
//	[cache]
//	strategy = "file"        # none | memory | file | redis | mongo
//	dir = "~/.cache/nugetaudit"
//	redis_addr = "localhost:6379"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[nuget]
//	base_url = "https://api.nuget.org/v3/registration5-gz-semver2"
//
//	[github]
//	token = "ghp_..."
//	api_url = "https://api.github.com"
//
//	[audit]
//	include_source_control = true
//	ignore_source_control_errors = false
//	workers = 8
//
//	[server]
//	addr = ":8080"
type Config struct {
	Cache  CacheConfig  `toml:"cache"`
	NuGet  NuGetConfig  `toml:"nuget"`
	GitHub GitHubConfig `toml:"github"`
	Audit  AuditConfig  `toml:"audit"`
	Server ServerConfig `toml:"server"`
}

type CacheConfig struct {
	Strategy  string `toml:"strategy"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	MongoURI  string `toml:"mongo_uri"`
}

type NuGetConfig struct {
	BaseURL string `toml:"base_url"`
}

type GitHubConfig struct {
	Token  string `toml:"token"`
	APIURL string `toml:"api_url"`
}

type AuditConfig struct {
	audit.Settings
	Workers int `toml:"workers"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// defaultConfig returns the configuration used when no file is present.
func defaultConfig() *Config {
	dir, _ := cacheDir()
	return &Config{
		Cache:  CacheConfig{Strategy: string(cache.StrategyFile), Dir: dir},
		NuGet:  NuGetConfig{BaseURL: nuget.DefaultBaseURL},
		GitHub: GitHubConfig{APIURL: github.DefaultBaseURL},
		Audit:  AuditConfig{Settings: audit.DefaultSettings(), Workers: audit.DefaultWorkers},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// loadConfig reads the TOML file at path on top of the defaults and applies
// environment overrides. A missing file is only an error when explicit.
func loadConfig(path string, explicit bool) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		p, err := configPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read config %s", path)
		}
	}

	if token := os.Getenv(envGitHubToken); token != "" {
		cfg.GitHub.Token = token
	}
	if strategy := os.Getenv(envCache); strategy != "" {
		cfg.Cache.Strategy = strategy
	}
	if _, err := cache.ParseStrategy(cfg.Cache.Strategy); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "cache strategy")
	}
	for name, u := range map[string]string{"nuget.base_url": cfg.NuGet.BaseURL, "github.api_url": cfg.GitHub.APIURL} {
		if err := errs.ValidateURL(u); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "%s", name)
		}
	}
	if cfg.Audit.Workers <= 0 {
		cfg.Audit.Workers = audit.DefaultWorkers
	}
	return cfg, nil
}

// cacheOptions translates the [cache] section for [cache.New].
func (c CacheConfig) cacheOptions() (cache.Options, error) {
	strategy, err := cache.ParseStrategy(c.Strategy)
	if err != nil {
		return cache.Options{}, err
	}
	return cache.Options{
		Strategy:    strategy,
		Dir:         c.Dir,
		RedisAddr:   c.RedisAddr,
		RedisPrefix: appName + ":",
		MongoURI:    c.MongoURI,
	}, nil
}

// configPath returns the config file location using XDG standard
// (~/.config/nugetaudit/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
