package cache

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/shell"
	"github.com/sirupsen/logrus"
)

// WithFilesystem sets the billy filesystem to use for cache operations.
// Defaults to the OS filesystem rooted at "/".
//
// Example:
//
//	cache, err := cache.NewRepositoryCache("/cache/git",
//	    cache.WithFilesystem(memfs.New()))
func WithFilesystem(fs billy.Filesystem) RepositoryCacheOption {
	return func(opts *repositoryCacheOptions) {
		opts.fs = fs
	}
}

// WithRemoteOperations sets how databases are fetched. Defaults to go-git.
//
// Example:
//
//	cache, err := cache.NewRepositoryCache(root,
//	    cache.WithRemoteOperations(git.NewCLIRemoteOperations()))
func WithRemoteOperations(ops git.RemoteOperations) RepositoryCacheOption {
	return func(opts *repositoryCacheOptions) {
		opts.remoteOps = ops
	}
}

// WithAuth provides authentication for fetches.
//
// Example:
//
//	auth, _ := git.SSHKeyFile(osfs.New("/"), "git", "/home/me/.ssh/id_rsa")
//	cache, err := cache.NewRepositoryCache(root, cache.WithAuth(auth))
func WithAuth(auth git.Auth) RepositoryCacheOption {
	return func(opts *repositoryCacheOptions) {
		opts.auth = auth
	}
}

// WithDepth sets the fetch depth (0 = full history).
func WithDepth(depth int) RepositoryCacheOption {
	return func(opts *repositoryCacheOptions) {
		opts.depth = depth
	}
}

// WithShell sets where the "Updating" status is reported when a fetch runs.
func WithShell(sh *shell.Shell) RepositoryCacheOption {
	return func(opts *repositoryCacheOptions) {
		opts.shell = sh
	}
}

// WithLogger sets the logger for cache diagnostics.
func WithLogger(logger logrus.FieldLogger) RepositoryCacheOption {
	return func(opts *repositoryCacheOptions) {
		opts.logger = logger
	}
}

// PruneOlderThan removes checkouts not accessed within the specified duration.
//
// Example:
//
//	cache.Prune(PruneOlderThan(7*24*time.Hour))
func PruneOlderThan(maxAge time.Duration) PruneStrategy {
	return &pruneOlderThan{maxAge: maxAge}
}

// PruneToSize removes least recently accessed checkouts until the checkouts
// directory is under maxBytes. Databases are not counted and never removed.
//
// Example:
//
//	cache.Prune(PruneToSize(10*1024*1024*1024)) // Keep checkouts under 10GB
func PruneToSize(maxBytes int64) PruneStrategy {
	return &pruneToSize{maxBytes: maxBytes}
}

// PruneOrphaned removes checkouts whose repository database is missing.
func PruneOrphaned() PruneStrategy {
	return &pruneOrphaned{}
}
