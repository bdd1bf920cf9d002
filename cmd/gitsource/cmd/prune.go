package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmgilman/go/gitsource/git/cache"
	"github.com/spf13/cobra"
)

var (
	pruneOlderThan time.Duration
	pruneMaxSize   string
	pruneOrphaned  bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cached checkouts",
	Long: `Removes checkouts selected by any of the given strategies. Repository
databases are never removed. Without flags nothing is removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		strategies, err := pruneStrategies(pruneOlderThan, pruneMaxSize, pruneOrphaned)
		if err != nil {
			return err
		}
		if len(strategies) == 0 {
			out(cmd, "Nothing to prune; pass --older-than, --max-size or --orphaned.")
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, l, err := openCache(cmd, cfg)
		if err != nil {
			return err
		}
		defer l.Unlock()

		removed, err := c.Prune(strategies...)
		if err != nil {
			return err
		}

		if len(removed) == 0 {
			out(cmd, "Nothing to prune.")
			return nil
		}
		for _, m := range removed {
			out(cmd, "  removed  %s (%s)", m.Path, m.URL)
		}
		out(cmd, "\nPruned %d checkout(s).", len(removed))
		return nil
	},
}

func pruneStrategies(olderThan time.Duration, maxSize string, orphaned bool) ([]cache.PruneStrategy, error) {
	var strategies []cache.PruneStrategy
	if olderThan > 0 {
		strategies = append(strategies, cache.PruneOlderThan(olderThan))
	}
	if maxSize != "" {
		n, err := humanize.ParseBytes(maxSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-size %q: %w", maxSize, err)
		}
		strategies = append(strategies, cache.PruneToSize(int64(n)))
	}
	if orphaned {
		strategies = append(strategies, cache.PruneOrphaned())
	}
	return strategies, nil
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "remove checkouts not accessed within this duration")
	pruneCmd.Flags().StringVar(&pruneMaxSize, "max-size", "", "evict least recently used checkouts until they fit, e.g. 5GB")
	pruneCmd.Flags().BoolVar(&pruneOrphaned, "orphaned", false, "remove checkouts whose database is missing")
	rootCmd.AddCommand(pruneCmd)
}
