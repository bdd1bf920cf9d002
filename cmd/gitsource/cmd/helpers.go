package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/jmgilman/go/gitsource/config"
	"github.com/jmgilman/go/gitsource/core"
	"github.com/jmgilman/go/gitsource/git/cache"
	"github.com/jmgilman/go/gitsource/lock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// loadConfig reads the config file and applies the global flags.
func loadConfig() (*config.Config, error) {
	var opts []config.Option
	if homeDir != "" {
		abs, err := filepath.Abs(homeDir)
		if err != nil {
			return nil, fmt.Errorf("resolving home %s: %w", homeDir, err)
		}
		opts = append(opts, config.WithHome(abs))
	}

	cfg, err := config.Load(configPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", configPath, err)
	}

	if logLevel != "" {
		if _, err := logrus.ParseLevel(logLevel); err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// openCache locks the git cache and opens it. The caller must release the
// returned lock.
func openCache(cmd *cobra.Command, cfg *config.Config) (*cache.RepositoryCache, *lock.Lock, error) {
	l, err := cfg.LockGit(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	c, err := cache.NewRepositoryCache(l.Parent(),
		cache.WithFilesystem(cfg.Filesystem()),
		cache.WithShell(cfg.Shell()),
		cache.WithLogger(cfg.Logger()),
	)
	if err != nil {
		_ = l.Unlock()
		return nil, nil, err
	}
	return c, l, nil
}

// referenceFromFlags turns the mutually exclusive --branch, --tag and --rev
// flags into a Reference. None set means the default branch.
func referenceFromFlags(branch, tag, rev string) (core.Reference, error) {
	switch {
	case branch != "":
		return core.ParseReference("branch", branch)
	case tag != "":
		return core.ParseReference("tag", tag)
	case rev != "":
		return core.ParseReference("rev", rev)
	default:
		return core.DefaultReference(), nil
	}
}

func out(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
