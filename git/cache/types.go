package cache

import (
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/jmgilman/go/gitsource/core"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/shell"
	"github.com/sirupsen/logrus"
)

// RepositoryCache owns the on-disk layout below a cache root:
//
//	<root>/db/<ident>                      bare repository database
//	<root>/checkouts/<ident>/<reference>   exported tree of one revision
//	<root>/index.json                      checkout metadata
//
// The root is the directory guarded by the cross-process package cache lock.
// RepositoryCache does not take that lock itself; callers hold it for the
// whole span from Resolve through Materialize, and around Prune and Stats.
type RepositoryCache struct {
	root        string
	dbDir       string
	checkoutDir string
	indexPath   string

	fs      billy.Filesystem
	index   *cacheIndex
	gitOpts []git.RepositoryOption
	shell   *shell.Shell
	log     logrus.FieldLogger

	mu sync.Mutex
}

// Resolution is the outcome of deciding between reusing a database and
// fetching into it.
type Resolution struct {
	// URL is the remote the database mirrors.
	URL string

	// Ident is the identity the database and checkouts are keyed by.
	Ident string

	// Reference is the symbolic reference naming the checkout directory.
	Reference core.Reference

	// Revision is the commit the reference resolved to.
	Revision git.Revision

	// Fetched reports whether the remote was contacted.
	Fetched bool

	// DatabasePath is the location of the bare database.
	DatabasePath string

	db *git.Database
}

// CheckoutMetadata tracks one materialized checkout.
type CheckoutMetadata struct {
	URL        string    `json:"url"`
	Ident      string    `json:"ident"`
	Reference  string    `json:"reference"`
	Revision   string    `json:"revision"`
	Path       string    `json:"path"` // relative to the checkouts directory
	CreatedAt  time.Time `json:"created_at"`
	LastAccess time.Time `json:"last_access"`
}

// CacheStats provides statistics about the cache.
type CacheStats struct {
	Databases      int   // Number of repository databases
	Checkouts      int   // Number of indexed checkouts
	TotalSize      int64 // Total disk usage in bytes
	DatabaseSize   int64 // Disk usage of databases
	CheckoutsSize  int64 // Disk usage of checkouts
	OldestCheckout *time.Time
	NewestCheckout *time.Time
}

// RepositoryCacheOption configures RepositoryCache creation.
type RepositoryCacheOption func(*repositoryCacheOptions)

type repositoryCacheOptions struct {
	fs        billy.Filesystem
	remoteOps git.RemoteOperations
	auth      git.Auth
	depth     int
	shell     *shell.Shell
	logger    logrus.FieldLogger
}

// PruneStrategy determines which checkouts should be removed during pruning.
type PruneStrategy interface {
	ShouldPrune(metadata *CheckoutMetadata) bool
}

// pruneOlderThan implements PruneStrategy for last-access-based expiration.
type pruneOlderThan struct {
	maxAge time.Duration
}

func (p *pruneOlderThan) ShouldPrune(metadata *CheckoutMetadata) bool {
	return time.Since(metadata.LastAccess) > p.maxAge
}

// pruneToSize evicts least recently accessed checkouts until the checkouts
// fit in maxBytes. It needs sizes, so Prune handles it separately.
type pruneToSize struct {
	maxBytes int64
}

func (p *pruneToSize) ShouldPrune(*CheckoutMetadata) bool {
	return false
}

// pruneOrphaned removes checkouts whose database no longer exists. It needs
// the filesystem, so Prune handles it separately.
type pruneOrphaned struct{}

func (p *pruneOrphaned) ShouldPrune(*CheckoutMetadata) bool {
	return false
}
