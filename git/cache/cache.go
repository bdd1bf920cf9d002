package cache

import (
	"fmt"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jmgilman/go/gitsource/core"
	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/shell"
	"github.com/sirupsen/logrus"
)

const (
	dbDirName       = "db"
	checkoutDirName = "checkouts"
	indexFileName   = "index.json"
)

// NewRepositoryCache creates a cache rooted at root, creating the db/ and
// checkouts/ directories and loading index.json.
//
// root is normally the parent directory of the package cache lock.
//
// Example:
//
//	l, err := cfg.LockGit(ctx)
//	...
//	defer l.Unlock()
//	cache, err := cache.NewRepositoryCache(l.Parent())
func NewRepositoryCache(root string, opts ...RepositoryCacheOption) (*RepositoryCache, error) {
	options := &repositoryCacheOptions{
		fs: osfs.New("/"),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.shell == nil {
		options.shell = shell.Discard()
	}
	if options.logger == nil {
		options.logger = logrus.StandardLogger()
	}

	fs := options.fs
	dbDir := filepath.Join(root, dbDirName)
	checkoutDir := filepath.Join(root, checkoutDirName)
	indexPath := filepath.Join(root, indexFileName)

	if err := fs.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}
	if err := fs.MkdirAll(checkoutDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkouts directory: %w", err)
	}

	log := options.logger.WithField("root", root)

	index, err := loadOrCreateIndex(fs, indexPath)
	if err != nil {
		// index.json is advisory; start over if it cannot be read.
		log.WithError(err).Warn("discarding unreadable cache index")
		index = newIndex()
	}

	gitOpts := []git.RepositoryOption{
		git.WithFilesystem(fs),
		git.WithLogger(options.logger),
		git.WithDepth(options.depth),
	}
	if options.remoteOps != nil {
		gitOpts = append(gitOpts, git.WithRemoteOperations(options.remoteOps))
	}
	if options.auth != nil {
		gitOpts = append(gitOpts, git.WithAuth(options.auth))
	}

	return &RepositoryCache{
		root:        root,
		dbDir:       dbDir,
		checkoutDir: checkoutDir,
		indexPath:   indexPath,
		fs:          fs,
		index:       index,
		gitOpts:     gitOpts,
		shell:       options.shell,
		log:         log,
	}, nil
}

// Root returns the cache root.
func (c *RepositoryCache) Root() string {
	return c.root
}

// DatabasePath returns where the database for ident lives.
func (c *RepositoryCache) DatabasePath(ident string) string {
	return filepath.Join(c.dbDir, ident)
}

// CheckoutPath returns the checkout directory for ident and ref. Reference
// names may contain "/" (feature/x) and are joined so that they cannot
// escape the identity's directory.
func (c *RepositoryCache) CheckoutPath(ident string, ref core.Reference) (string, error) {
	base := filepath.Join(c.checkoutDir, ident)
	p, err := securejoin.SecureJoinVFS(base, ref.Name(), c.fs)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeInvalidInput, "invalid reference name %q", ref.Name())
	}
	if p == base {
		return "", errors.Newf(errors.CodeInvalidInput, "reference name %q does not name a directory", ref.Name())
	}
	return p, nil
}

// Stats returns statistics about the cache.
func (c *RepositoryCache) Stats() (*CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.fs.ReadDir(c.dbDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}

	checkouts := c.index.list()
	stats := &CacheStats{
		Checkouts: len(checkouts),
	}
	for _, entry := range entries {
		if entry.IsDir() {
			stats.Databases++
		}
	}

	if size, err := c.calculateDirSize(c.dbDir); err == nil {
		stats.DatabaseSize = size
	}
	if size, err := c.calculateDirSize(c.checkoutDir); err == nil {
		stats.CheckoutsSize = size
	}
	stats.TotalSize = stats.DatabaseSize + stats.CheckoutsSize

	for _, metadata := range checkouts {
		if stats.OldestCheckout == nil || metadata.CreatedAt.Before(*stats.OldestCheckout) {
			t := metadata.CreatedAt
			stats.OldestCheckout = &t
		}
		if stats.NewestCheckout == nil || metadata.CreatedAt.After(*stats.NewestCheckout) {
			t := metadata.CreatedAt
			stats.NewestCheckout = &t
		}
	}

	return stats, nil
}

// Checkouts returns the metadata of every indexed checkout.
func (c *RepositoryCache) Checkouts() []CheckoutMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := c.index.list()
	out := make([]CheckoutMetadata, 0, len(all))
	for _, m := range all {
		out = append(out, *m)
	}
	return out
}
