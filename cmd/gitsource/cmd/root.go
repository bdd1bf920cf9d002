package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Global flags.
var (
	configPath string
	homeDir    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "gitsource",
	Short: "Fetch, cache and inspect git package sources",
	Long: `gitsource resolves git references to pinned revisions, keeps a shared
cache of repository databases and checkouts, and lists the packages found in
a checkout. Concurrent invocations share the cache safely through a file lock.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "gitsource.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "cache home directory (overrides config and GITSOURCE_HOME)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "diagnostic log level (overrides config)")
}

// Execute runs the root command. An interrupt cancels blocking lock waits
// and fetches.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
