package cache

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jmgilman/go/gitsource/core"
	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/sirupsen/logrus"
)

// Resolve decides whether the database for id can be reused or must be
// fetched, and returns the revision id resolves to.
//
// The reference used is id.ResolutionReference(): the pinned precise
// revision if there is one, otherwise the symbolic reference. The local
// database is consulted first. The remote is contacted when that lookup
// fails or when id carries no precise revision, since a movable reference
// is never trusted from the cache alone. After a fetch the reference must
// resolve; otherwise the error carries CodeResolutionFailed.
//
// Example:
//
//	res, err := cache.Resolve(ctx, id)
//	if err != nil {
//	    return err
//	}
//	dir, err := cache.Materialize(ctx, res)
func (c *RepositoryCache) Resolve(ctx context.Context, id core.SourceID) (*Resolution, error) {
	ident, err := Ident(id.URL())
	if err != nil {
		return nil, err
	}

	ref := id.ResolutionReference()
	dbPath := c.DatabasePath(ident)
	remote := git.NewRemote(id.URL(), c.gitOpts...)

	log := c.log.WithFields(logrus.Fields{
		"url":       id.URL(),
		"ident":     ident,
		"reference": ref.Name(),
	})

	db, rev, lookupErr := c.lookup(remote, dbPath, ref)
	_, pinned := id.Precise()

	res := &Resolution{
		URL:          id.URL(),
		Ident:        ident,
		Reference:    id.Reference(),
		DatabasePath: dbPath,
	}

	if !needsFetch(lookupErr, pinned) {
		log.WithField("revision", rev.String()).Debug("reusing pinned revision from database")
		res.Revision = rev
		res.db = db
		return res, nil
	}
	if lookupErr != nil {
		log.WithError(lookupErr).Debug("reference not available locally")
	}

	if err := c.shell.Status("Updating", fmt.Sprintf("git repository `%s`", id.URL())); err != nil {
		log.WithError(err).Debug("failed to report status")
	}
	log.Info("fetching git repository")

	db, err = remote.Checkout(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	rev, err = db.RevFor(ref)
	if err != nil {
		return nil, err
	}
	log.Debugf("revision '%s' resolved to '%s'", ref.Name(), rev.String())

	res.Revision = rev
	res.Fetched = true
	res.db = db
	return res, nil
}

// needsFetch reports whether the remote must be contacted. Only a pinned
// revision that is already present locally is trusted without fetching.
func needsFetch(lookupErr error, pinned bool) bool {
	return lookupErr != nil || !pinned
}

func (c *RepositoryCache) lookup(remote *git.Remote, dbPath string, ref core.Reference) (*git.Database, git.Revision, error) {
	db, err := remote.DatabaseAt(dbPath)
	if err != nil {
		return nil, git.Revision{}, err
	}
	rev, err := db.RevFor(ref)
	if err != nil {
		return nil, git.Revision{}, err
	}
	return db, rev, nil
}

// Materialize exports res.Revision into the checkout directory for
// res.Ident and res.Reference and returns that directory.
//
// Prior contents of the directory are replaced entirely unless they were
// already exported from the same revision. The checkout is recorded in the
// index.
func (c *RepositoryCache) Materialize(ctx context.Context, res *Resolution) (string, error) {
	if res == nil || res.db == nil {
		return "", errors.New(errors.CodeInvalidInput, "resolution has no database")
	}

	path, err := c.CheckoutPath(res.Ident, res.Reference)
	if err != nil {
		return "", err
	}

	if err := res.db.CopyTo(ctx, res.Revision, path); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rel, err := filepath.Rel(c.checkoutDir, path)
	if err != nil {
		rel = path
	}
	c.index.record(indexKey(res.Ident, res.Reference.Name()), &CheckoutMetadata{
		URL:       res.URL,
		Ident:     res.Ident,
		Reference: res.Reference.Name(),
		Revision:  res.Revision.String(),
		Path:      rel,
	})
	if err := c.index.save(c.fs, c.indexPath); err != nil {
		c.log.WithError(err).Warn("failed to save cache index")
	}

	return path, nil
}
