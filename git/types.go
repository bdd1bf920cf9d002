package git

import (
	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sirupsen/logrus"
)

// Repository wraps a go-git repository together with the billy filesystem
// scoped to its directory.
type Repository struct {
	path string
	repo *gogit.Repository
	fs   billy.Filesystem
}

// Revision is a resolved commit id. The zero value is not a valid revision.
type Revision struct {
	hash plumbing.Hash
}

// NewRevision parses a full hexadecimal commit id.
func NewRevision(s string) (Revision, bool) {
	if !plumbing.IsHash(s) {
		return Revision{}, false
	}
	h := plumbing.NewHash(s)
	if h.IsZero() {
		return Revision{}, false
	}
	return Revision{hash: h}, true
}

// String returns the full hexadecimal commit id.
func (r Revision) String() string {
	return r.hash.String()
}

// IsZero reports whether r is the zero Revision.
func (r Revision) IsZero() bool {
	return r.hash.IsZero()
}

// Hash returns the underlying go-git hash.
func (r Revision) Hash() plumbing.Hash {
	return r.hash
}

// Auth is an interface for authentication methods.
// It is satisfied by go-git's transport.AuthMethod.
type Auth interface {
	// Marker interface - satisfied by go-git transport.AuthMethod
}

// FetchOptions configures fetch operations.
type FetchOptions struct {
	RemoteName string // Default: "origin"
	URL        string
	RefSpecs   []string
	Auth       Auth
	Depth      int // 0 fetches full history
}

// RepositoryOption configures repository and remote operations.
type RepositoryOption func(*repositoryOptions)

type repositoryOptions struct {
	fs        billy.Filesystem
	remoteOps RemoteOperations
	bare      bool
	auth      Auth
	depth     int
	logger    logrus.FieldLogger
}

// WithFilesystem sets the billy filesystem to use for repository operations.
// If not provided, defaults to osfs.New(path) rooted at the repository path.
//
// Example:
//
//	repo, err := git.Init("/path/to/repo", git.WithFilesystem(memfs.New()))
func WithFilesystem(fs billy.Filesystem) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.fs = fs
	}
}

// WithRemoteOperations sets the RemoteOperations implementation used to
// fetch. Defaults to go-git's network operations.
//
// Example:
//
//	remote := git.NewRemote(url, git.WithRemoteOperations(git.NewCLIRemoteOperations()))
func WithRemoteOperations(ops RemoteOperations) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.remoteOps = ops
	}
}

// WithBare creates a bare repository (no working tree).
// Only applicable to Init.
func WithBare() RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.bare = true
	}
}

// WithAuth sets authentication for fetches.
//
// Example:
//
//	auth, _ := git.SSHKeyFile(osfs.New("/"), "git", "/home/me/.ssh/id_rsa")
//	remote := git.NewRemote("git@github.com:org/repo.git", git.WithAuth(auth))
func WithAuth(auth Auth) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.auth = auth
	}
}

// WithDepth limits fetches to the given history depth.
// A depth of 0 (default) fetches full history.
func WithDepth(depth int) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.depth = depth
	}
}

// WithLogger sets the logger used for fetch and checkout diagnostics.
func WithLogger(logger logrus.FieldLogger) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.logger = logger
	}
}

func applyOptions(opts []RepositoryOption, defaults *repositoryOptions) *repositoryOptions {
	for _, opt := range opts {
		opt(defaults)
	}
	if defaults.remoteOps == nil {
		defaults.remoteOps = &defaultRemoteOps{}
	}
	if defaults.logger == nil {
		defaults.logger = logrus.StandardLogger()
	}
	return defaults
}
