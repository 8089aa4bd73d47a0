package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nugetaudit/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached responses",
		Long:  `Clear removes every cached registry and GitHub response from the configured cache backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			strategy, err := cache.ParseStrategy(cfg.Cache.Strategy)
			if err != nil {
				return err
			}
			if strategy == cache.StrategyNone || strategy == cache.StrategyMemory {
				printInfo("Cache strategy %q keeps nothing between runs", strategy)
				return nil
			}

			store, err := newCache(ctx, cfg.Cache, false, c.Logger)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			if err := store.Clear(ctx); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared %s cache", strategy)
			if strategy == cache.StrategyFile {
				printDetail("Directory: %s", cfg.Cache.Dir)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Cache.Dir == "" {
				return fmt.Errorf("no cache directory configured")
			}
			fmt.Println(cfg.Cache.Dir)
			return nil
		},
	}
}
