// Package source provides GitSource, the package source backed by a git
// repository.
//
// A GitSource starts out uninitialized. Update takes the package cache lock,
// decides whether the repository database must be fetched, materializes the
// resolved revision into a checkout and reads the packages found there.
// Query, Download and Fingerprint are only valid afterwards; calling them
// earlier is a programming error and panics.
//
//	cfg, err := config.Load(path)
//	...
//	src, err := source.NewGitSource(id, cfg)
//	...
//	if err := src.Update(ctx); err != nil {
//	    return err
//	}
//	summaries, err := src.Query(dep)
package source

import (
	"context"
	"fmt"

	"github.com/jmgilman/go/gitsource/config"
	"github.com/jmgilman/go/gitsource/core"
	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/git/cache"
	"github.com/jmgilman/go/gitsource/pathsrc"
	"github.com/sirupsen/logrus"
)

var _ core.Source = (*GitSource)(nil)

// state is either uninitialized or updated.
type state interface {
	isState()
}

type uninitialized struct{}

// updated is the state after a successful Update.
type updated struct {
	revision git.Revision
	precise  core.SourceID
	checkout string
	reader   core.PackageReader
}

func (uninitialized) isState() {}
func (*updated) isState()      {}

// GitSource is a package source backed by a git repository. It is not safe
// for concurrent use; concurrent processes are serialized by the package
// cache lock.
type GitSource struct {
	id    core.SourceID
	ident string
	cfg   *config.Config

	readerFactory core.PackageReaderFactory
	remoteOps     git.RemoteOperations
	auth          git.Auth
	log           logrus.FieldLogger

	state state
}

// NewGitSource returns an uninitialized source for id.
func NewGitSource(id core.SourceID, cfg *config.Config, opts ...Option) (*GitSource, error) {
	if id.IsZero() {
		return nil, errors.New(errors.CodeInvalidInput, "source id has no repository URL")
	}
	if cfg == nil {
		return nil, errors.New(errors.CodeInvalidInput, "config is required")
	}

	ident, err := cache.Ident(id.URL())
	if err != nil {
		return nil, err
	}

	s := &GitSource{
		id:    id,
		ident: ident,
		cfg:   cfg,
		state: uninitialized{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = cfg.Logger()
	}
	s.log = s.log.WithFields(logrus.Fields{
		"url":   id.URL(),
		"ident": ident,
	})
	if s.remoteOps == nil {
		s.remoteOps = cfg.RemoteOperations()
	}
	if s.auth == nil {
		if s.auth, err = cfg.Auth(); err != nil {
			return nil, err
		}
	}
	if s.readerFactory == nil {
		s.readerFactory = pathsrc.Factory(
			pathsrc.WithFilesystem(cfg.Filesystem()),
			pathsrc.WithIgnore(cfg.Packages.Ignore...),
			pathsrc.WithLogger(s.log),
		)
	}

	return s, nil
}

// ID returns the source id the source was created with.
func (s *GitSource) ID() core.SourceID {
	return s.id
}

// URL returns the repository URL.
func (s *GitSource) URL() string {
	return s.id.URL()
}

// Ident returns the cache identity of the repository.
func (s *GitSource) Ident() string {
	return s.ident
}

// Update resolves the source's reference and reads the packages of the
// resulting checkout.
//
// The package cache lock is held from the fetch decision until the package
// reader has finished with the checkout. On failure the previous state is
// kept.
func (s *GitSource) Update(ctx context.Context) error {
	l, err := s.cfg.LockGit(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Unlock(); err != nil {
			s.log.WithError(err).Warn("failed to release package cache lock")
		}
	}()

	opts := []cache.RepositoryCacheOption{
		cache.WithFilesystem(s.cfg.Filesystem()),
		cache.WithRemoteOperations(s.remoteOps),
		cache.WithDepth(s.cfg.Net.Depth),
		cache.WithShell(s.cfg.Shell()),
		cache.WithLogger(s.log),
	}
	if s.auth != nil {
		opts = append(opts, cache.WithAuth(s.auth))
	}

	c, err := cache.NewRepositoryCache(l.Parent(), opts...)
	if err != nil {
		return err
	}

	res, err := c.Resolve(ctx, s.id)
	if err != nil {
		return err
	}

	dir, err := c.Materialize(ctx, res)
	if err != nil {
		return err
	}

	precise := s.id.WithPrecise(res.Revision.String())
	reader := s.readerFactory(dir, precise)
	if err := reader.Update(ctx); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"revision": res.Revision.String(),
		"fetched":  res.Fetched,
		"path":     dir,
	}).Debug("git source updated")

	s.state = &updated{
		revision: res.Revision,
		precise:  precise,
		checkout: dir,
		reader:   reader,
	}
	return nil
}

// mustBeUpdated returns the updated state or panics naming op.
func (s *GitSource) mustBeUpdated(op string) *updated {
	switch st := s.state.(type) {
	case *updated:
		return st
	default:
		panic(fmt.Sprintf("BUG: update() must be called before %s()", op))
	}
}

// Query returns the summaries of packages in the checkout matching dep. It
// panics if Update has not succeeded.
func (s *GitSource) Query(dep core.Dependency) ([]core.Summary, error) {
	return s.mustBeUpdated("query").reader.Query(dep)
}

// Download returns the package with the given id. It panics if Update has
// not succeeded.
func (s *GitSource) Download(id core.PackageID) (*core.Package, error) {
	st := s.mustBeUpdated("get")
	s.log.WithField("package", id.String()).Debug("getting package")
	return st.reader.Download(id)
}

// Fingerprint returns the resolved revision. pkg is ignored: every package
// of a git source changes exactly when the revision does. It panics if
// Update has not succeeded.
func (s *GitSource) Fingerprint(_ *core.Package) (string, error) {
	return s.mustBeUpdated("fingerprint").revision.String(), nil
}

// ReadPackages returns every package in the checkout, running Update first
// if it has not succeeded yet.
func (s *GitSource) ReadPackages(ctx context.Context) ([]*core.Package, error) {
	if _, ok := s.state.(uninitialized); ok {
		if err := s.Update(ctx); err != nil {
			return nil, err
		}
	}
	return s.mustBeUpdated("read_packages").reader.ReadPackages()
}

// PreciseID returns the source id pinned at the resolved revision. It
// panics if Update has not succeeded.
func (s *GitSource) PreciseID() core.SourceID {
	return s.mustBeUpdated("precise_id").precise
}

// CheckoutPath returns the directory the resolved revision was materialized
// into. It panics if Update has not succeeded.
//
// Checkouts are keyed by reference, not revision. An Update that fails after
// materializing leaves Fingerprint at the previous revision while this
// directory already holds the newer one.
func (s *GitSource) CheckoutPath() string {
	return s.mustBeUpdated("checkout_path").checkout
}

// String renders the source for diagnostics, e.g.
// "git repo at https://github.com/org/repo (tag=v1.0.0)".
func (s *GitSource) String() string {
	out := fmt.Sprintf("git repo at %s", s.id.URL())
	if display, ok := s.id.ResolutionReference().DisplayString(); ok {
		out += fmt.Sprintf(" (%s)", display)
	}
	return out
}
