package git

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// Init creates a new Git repository at the specified path.
//
// By default, Init creates a standard (non-bare) repository on the local
// filesystem. Repository databases are created with WithBare.
//
// Examples:
//
//	repo, err := git.Init("/path/to/repo")
//	db, err := git.Init("/path/to/db", git.WithBare())
//	repo, err := git.Init("/repo", git.WithFilesystem(memfs.New()))
func Init(path string, opts ...RepositoryOption) (*Repository, error) {
	options := applyOptions(opts, &repositoryOptions{fs: osfs.New(path)})

	fs := options.fs
	if err := fs.MkdirAll(path, 0o755); err != nil {
		return nil, wrapError(err, "failed to create repository directory")
	}

	scopedFs, err := fs.Chroot(path)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}

	if options.bare {
		storage := filesystem.NewStorage(scopedFs, cache.NewObjectLRUDefault())
		repo, err := gogit.Init(storage, nil)
		if err != nil {
			return nil, wrapError(err, "failed to initialize bare repository")
		}
		return &Repository{path: path, repo: repo, fs: scopedFs}, nil
	}

	dotGitFs, err := scopedFs.Chroot(".git")
	if err != nil {
		return nil, wrapError(err, "failed to create .git filesystem")
	}

	storage := filesystem.NewStorage(dotGitFs, cache.NewObjectLRUDefault())
	repo, err := gogit.Init(storage, scopedFs)
	if err != nil {
		return nil, wrapError(err, "failed to initialize repository")
	}

	return &Repository{path: path, repo: repo, fs: scopedFs}, nil
}

// Open opens an existing Git repository at the specified path. Both
// standard and bare layouts are recognized.
//
// Returns an error carrying CodeNotFound if no repository exists at path.
func Open(path string, opts ...RepositoryOption) (*Repository, error) {
	options := applyOptions(opts, &repositoryOptions{fs: osfs.New(path)})

	scopedFs, err := options.fs.Chroot(path)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}

	var repo *gogit.Repository
	if stat, statErr := scopedFs.Stat(".git"); statErr == nil && stat.IsDir() {
		dotGitFs, err := scopedFs.Chroot(".git")
		if err != nil {
			return nil, wrapError(err, "failed to scope filesystem to .git")
		}
		storage := filesystem.NewStorage(dotGitFs, cache.NewObjectLRUDefault())
		repo, err = gogit.Open(storage, scopedFs)
		if err != nil {
			return nil, wrapError(err, "failed to open repository")
		}
	} else {
		storage := filesystem.NewStorage(scopedFs, cache.NewObjectLRUDefault())
		repo, err = gogit.Open(storage, nil)
		if err != nil {
			return nil, wrapError(err, "failed to open repository")
		}
	}

	return &Repository{path: path, repo: repo, fs: scopedFs}, nil
}

// Underlying returns the underlying go-git Repository for operations not
// covered by this wrapper.
func (r *Repository) Underlying() *gogit.Repository {
	return r.repo
}

// Filesystem returns the billy.Filesystem scoped to the repository directory.
func (r *Repository) Filesystem() billy.Filesystem {
	return r.fs
}

// Path returns the path the repository was opened at.
func (r *Repository) Path() string {
	return r.path
}

// SetRemote points the named remote at url, creating it if needed.
func (r *Repository) SetRemote(name, url string) error {
	remote, err := r.repo.Remote(name)
	if err == nil {
		urls := remote.Config().URLs
		if len(urls) == 1 && urls[0] == url {
			return nil
		}
		if err := r.repo.DeleteRemote(name); err != nil {
			return wrapError(err, "failed to replace remote")
		}
	}

	_, err = r.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return wrapError(err, "failed to add remote")
	}
	return nil
}
