package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/jmgilman/go/gitsource/core"
	platformerrors "github.com/jmgilman/go/gitsource/errors"
	"github.com/sirupsen/logrus"
)

const (
	originRemote = "origin"

	// ReadyMarker is written into a checkout once every file is in place.
	// It holds the revision the checkout was exported from.
	ReadyMarker = ".gitsource-ok"
)

// fetchRefSpecs mirror every branch as a remote-tracking ref and every tag
// as a local tag.
var fetchRefSpecs = []string{
	"+refs/heads/*:refs/remotes/origin/*",
	"+refs/tags/*:refs/tags/*",
}

// Remote is a repository location that databases are fetched from.
type Remote struct {
	url  string
	opts *repositoryOptions
}

// NewRemote returns a Remote for url. Paths passed to Checkout and
// DatabaseAt are resolved against the configured filesystem, which defaults
// to the OS filesystem rooted at "/".
func NewRemote(url string, opts ...RepositoryOption) *Remote {
	return &Remote{
		url:  url,
		opts: applyOptions(opts, &repositoryOptions{fs: osfs.New("/")}),
	}
}

// URL returns the location this remote fetches from.
func (r *Remote) URL() string {
	return r.url
}

// Checkout brings the bare database at dbPath up to date with the remote,
// creating it first if needed, and returns it.
//
// Fetch failures are reported with CodeRemoteAccess. Failures to prepare the
// local database are reported with CodeInternal. The database is left usable
// after a failed fetch.
func (r *Remote) Checkout(ctx context.Context, dbPath string) (*Database, error) {
	repo, err := r.openOrInit(dbPath)
	if err != nil {
		return nil, platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to prepare repository database %s", dbPath)
	}

	if err := repo.SetRemote(originRemote, r.url); err != nil {
		return nil, platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to configure remote in %s", dbPath)
	}

	log := r.opts.logger.WithFields(logrus.Fields{
		"url":  r.url,
		"path": dbPath,
	})
	log.Debug("fetching repository")

	err = r.opts.remoteOps.Fetch(ctx, repo, FetchOptions{
		RemoteName: originRemote,
		URL:        r.url,
		RefSpecs:   fetchRefSpecs,
		Auth:       r.opts.auth,
		Depth:      r.opts.depth,
	})
	if err != nil {
		log.WithError(err).Debug("fetch failed")
		return nil, remoteError(err, r.url)
	}

	return &Database{remote: r, repo: repo, path: dbPath}, nil
}

// DatabaseAt opens the existing database at dbPath without contacting the
// remote.
func (r *Remote) DatabaseAt(dbPath string) (*Database, error) {
	repo, err := Open(dbPath, WithFilesystem(r.opts.fs))
	if err != nil {
		return nil, err
	}
	return &Database{remote: r, repo: repo, path: dbPath}, nil
}

// openOrInit opens the database at dbPath. A missing directory, or one that
// holds no repository (left behind by an interrupted Init), gets a fresh bare
// repository in place.
func (r *Remote) openOrInit(dbPath string) (*Repository, error) {
	if _, err := r.opts.fs.Stat(dbPath); err != nil && !os.IsNotExist(err) {
		return nil, wrapError(err, "failed to stat repository database")
	} else if err == nil {
		repo, err := Open(dbPath, WithFilesystem(r.opts.fs))
		if !errors.Is(err, gogit.ErrRepositoryNotExists) {
			return repo, err
		}
		r.opts.logger.WithField("path", dbPath).Warn("reinitializing incomplete repository database")
	}
	return Init(dbPath, WithFilesystem(r.opts.fs), WithBare())
}

// Database is a local bare repository mirroring one remote.
type Database struct {
	remote *Remote
	repo   *Repository
	path   string
}

// Path returns the database location.
func (d *Database) Path() string {
	return d.path
}

// Repository returns the underlying repository.
func (d *Database) Repository() *Repository {
	return d.repo
}

// RevFor resolves ref against the database's fetched refs.
//
// A Branch resolves to the tip of its remote-tracking ref, a Tag to the
// commit it points at (annotated tags are peeled), and a Rev to the commit
// it names. Failures carry CodeResolutionFailed.
func (d *Database) RevFor(ref core.Reference) (Revision, error) {
	var (
		hash plumbing.Hash
		what string
		err  error
	)

	switch r := ref.(type) {
	case core.Branch:
		what = fmt.Sprintf("branch `%s`", r.Name())
		hash, err = d.branchTip(r.Name())
	case core.Tag:
		what = fmt.Sprintf("tag `%s`", r.Name())
		hash, err = d.tagTarget(r.Name())
	case core.Rev:
		what = fmt.Sprintf("revision `%s`", r.Name())
		hash, err = d.revision(r.Name())
	default:
		return Revision{}, resolutionError(fmt.Errorf("unsupported reference %T", ref), "reference")
	}
	if err != nil {
		return Revision{}, resolutionError(err, what)
	}

	if _, err := d.repo.repo.CommitObject(hash); err != nil {
		return Revision{}, resolutionError(err, what)
	}

	return Revision{hash: hash}, nil
}

func (d *Database) branchTip(name string) (plumbing.Hash, error) {
	ref, err := d.repo.repo.Reference(plumbing.NewRemoteReferenceName(originRemote, name), true)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

func (d *Database) tagTarget(name string) (plumbing.Hash, error) {
	ref, err := d.repo.repo.Reference(plumbing.NewTagReferenceName(name), true)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	tag, err := d.repo.repo.TagObject(ref.Hash())
	switch err {
	case nil:
		commit, err := tag.Commit()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return commit.Hash, nil
	case plumbing.ErrObjectNotFound:
		// lightweight tag
		return ref.Hash(), nil
	default:
		return plumbing.ZeroHash, err
	}
}

func (d *Database) revision(name string) (plumbing.Hash, error) {
	hash, err := d.repo.repo.ResolveRevision(plumbing.Revision(name))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return *hash, nil
}

// Contains reports whether rev is a commit present in the database.
func (d *Database) Contains(rev Revision) bool {
	if rev.IsZero() {
		return false
	}
	_, err := d.repo.repo.CommitObject(rev.hash)
	return err == nil
}

// CopyTo materializes the tree of rev at target on the database's
// filesystem.
//
// A target whose ReadyMarker already names rev is left untouched. Anything
// else at target is removed and rewritten, and the marker is written last,
// so an interrupted copy is never mistaken for a complete one.
func (d *Database) CopyTo(ctx context.Context, rev Revision, target string) error {
	fs := d.remote.opts.fs
	log := d.remote.opts.logger.WithFields(logrus.Fields{
		"revision": rev.String(),
		"path":     target,
	})

	if IsCheckoutFresh(fs, target, rev) {
		log.Debug("checkout is up to date")
		return nil
	}

	commit, err := d.repo.repo.CommitObject(rev.hash)
	if err != nil {
		return wrapError(err, "failed to load commit")
	}
	tree, err := commit.Tree()
	if err != nil {
		return wrapError(err, "failed to load tree")
	}

	if err := util.RemoveAll(fs, target); err != nil {
		return wrapError(err, "failed to clear checkout")
	}
	if err := fs.MkdirAll(target, 0o755); err != nil {
		return wrapError(err, "failed to create checkout directory")
	}

	log.Debug("exporting tree")
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return writeFile(fs, target, f)
	})
	if err != nil {
		return wrapError(err, "failed to write checkout")
	}

	if err := util.WriteFile(fs, filepath.Join(target, ReadyMarker), []byte(rev.String()+"\n"), 0o644); err != nil {
		return wrapError(err, "failed to mark checkout ready")
	}
	return nil
}

// IsCheckoutFresh reports whether the checkout at target was completely
// exported from rev.
func IsCheckoutFresh(fs billy.Filesystem, target string, rev Revision) bool {
	data, err := util.ReadFile(fs, filepath.Join(target, ReadyMarker))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == rev.String()
}

func writeFile(fs billy.Filesystem, root string, f *object.File) error {
	name := filepath.FromSlash(f.Name)
	if !filepath.IsLocal(name) {
		return fmt.Errorf("tree entry %q escapes checkout", f.Name)
	}
	dst := filepath.Join(root, name)

	if err := fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	if f.Mode == filemode.Symlink {
		linkTarget, err := f.Contents()
		if err != nil {
			return err
		}
		return fs.Symlink(linkTarget, dst)
	}

	mode, err := f.Mode.ToOSFileMode()
	if err != nil {
		return err
	}

	src, err := f.Reader()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
