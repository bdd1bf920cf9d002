package git_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/gitsource/core"
	platformerrors "github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/git/testutil"
)

func setupDatabase(t *testing.T) (*testutil.SourceRepo, *git.Database, string) {
	t.Helper()

	tempDir := t.TempDir()
	src := testutil.NewSourceRepo(t, filepath.Join(tempDir, "source"))

	remote := git.NewRemote(src.Path())
	db, err := remote.Checkout(context.Background(), filepath.Join(tempDir, "db"))
	require.NoError(t, err)

	return src, db, tempDir
}

func TestRemote_CheckoutCreatesBareDatabase(t *testing.T) {
	_, db, tempDir := setupDatabase(t)

	assert.Equal(t, filepath.Join(tempDir, "db"), db.Path())

	fs := osfs.New("/")
	_, err := fs.Stat(filepath.Join(db.Path(), "HEAD"))
	assert.NoError(t, err, "bare database should have HEAD at its root")
	_, err = fs.Stat(filepath.Join(db.Path(), ".git"))
	assert.Error(t, err, "bare database should not have a .git directory")
}

func TestDatabase_RevForBranch(t *testing.T) {
	src, db, _ := setupDatabase(t)

	head, err := db.RevFor(core.DefaultReference())
	require.NoError(t, err)

	second := src.Commit("second", map[string]string{"b.txt": "b"})
	src.Branch("dev", second)

	// dev is unknown until the next fetch
	_, err = db.RevFor(core.Branch("dev"))
	assert.True(t, platformerrors.HasCode(err, platformerrors.CodeResolutionFailed))

	db, err = git.NewRemote(src.Path()).Checkout(context.Background(), db.Path())
	require.NoError(t, err)

	rev, err := db.RevFor(core.Branch("dev"))
	require.NoError(t, err)
	assert.Equal(t, second, rev.String())

	master, err := db.RevFor(core.DefaultReference())
	require.NoError(t, err)
	assert.Equal(t, second, master.String())
	assert.NotEqual(t, head, master)
}

func TestDatabase_RevForTags(t *testing.T) {
	src, _, tempDir := setupDatabase(t)

	first := src.Commit("first release", map[string]string{"a.txt": "a"})
	src.Tag("v1.0.0", first)
	second := src.Commit("second release", map[string]string{"a.txt": "aa"})
	src.AnnotatedTag("v2.0.0", second)

	db, err := git.NewRemote(src.Path()).Checkout(context.Background(), filepath.Join(tempDir, "db"))
	require.NoError(t, err)

	rev, err := db.RevFor(core.Tag("v1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, first, rev.String())

	rev, err = db.RevFor(core.Tag("v2.0.0"))
	require.NoError(t, err)
	assert.Equal(t, second, rev.String(), "annotated tags resolve to their commit")

	_, err = db.RevFor(core.Tag("v3.0.0"))
	assert.True(t, platformerrors.HasCode(err, platformerrors.CodeResolutionFailed))
}

func TestDatabase_RevForRev(t *testing.T) {
	_, db, _ := setupDatabase(t)

	head, err := db.RevFor(core.DefaultReference())
	require.NoError(t, err)

	rev, err := db.RevFor(core.Rev(head.String()))
	require.NoError(t, err)
	assert.Equal(t, head, rev)

	_, err = db.RevFor(core.Rev("0123456789012345678901234567890123456789"))
	assert.True(t, platformerrors.HasCode(err, platformerrors.CodeResolutionFailed))
}

func TestRemote_CheckoutUnreachable(t *testing.T) {
	tempDir := t.TempDir()

	remote := git.NewRemote(filepath.Join(tempDir, "does-not-exist"))
	_, err := remote.Checkout(context.Background(), filepath.Join(tempDir, "db"))

	require.Error(t, err)
	assert.True(t, platformerrors.HasCode(err, platformerrors.CodeRemoteAccess))
}

func TestRemote_CheckoutRepairsIncompleteDatabase(t *testing.T) {
	tempDir := t.TempDir()
	src := testutil.NewSourceRepo(t, filepath.Join(tempDir, "source"))
	head := src.Commit("second", map[string]string{"b.txt": "b"})

	// directory created but never initialized
	dbPath := filepath.Join(tempDir, "db")
	fs := osfs.New("/")
	require.NoError(t, fs.MkdirAll(dbPath, 0o755))
	require.NoError(t, util.WriteFile(fs, filepath.Join(dbPath, "stray"), []byte("x"), 0o644))

	db, err := git.NewRemote(src.Path()).Checkout(context.Background(), dbPath)
	require.NoError(t, err)

	rev, err := db.RevFor(core.DefaultReference())
	require.NoError(t, err)
	assert.Equal(t, head, rev.String())

	_, err = fs.Stat(filepath.Join(dbPath, "HEAD"))
	assert.NoError(t, err)
}

func TestRemote_DatabaseAtMissing(t *testing.T) {
	remote := git.NewRemote("https://example.com/repo")
	_, err := remote.DatabaseAt(filepath.Join(t.TempDir(), "db"))

	require.Error(t, err)
	assert.True(t, platformerrors.HasCode(err, platformerrors.CodeNotFound))
}

func TestDatabase_CopyTo(t *testing.T) {
	src, db, tempDir := setupDatabase(t)
	fs := osfs.New("/")

	rev := src.Commit("layout", map[string]string{
		"pkg/package.yaml": "name: demo\n",
		"README.md":        "demo\n",
	})
	db, err := git.NewRemote(src.Path()).Checkout(context.Background(), db.Path())
	require.NoError(t, err)

	resolved, err := db.RevFor(core.DefaultReference())
	require.NoError(t, err)
	require.Equal(t, rev, resolved.String())

	target := filepath.Join(tempDir, "checkouts", "master")
	require.NoError(t, db.CopyTo(context.Background(), resolved, target))

	data, err := util.ReadFile(fs, filepath.Join(target, "pkg", "package.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "name: demo\n", string(data))

	data, err = util.ReadFile(fs, filepath.Join(target, "test.txt"))
	require.NoError(t, err)
	assert.Equal(t, "test content\n", string(data))

	assert.True(t, git.IsCheckoutFresh(fs, target, resolved))
}

func TestDatabase_CopyToSkipsFreshCheckout(t *testing.T) {
	_, db, tempDir := setupDatabase(t)
	fs := osfs.New("/")

	rev, err := db.RevFor(core.DefaultReference())
	require.NoError(t, err)

	target := filepath.Join(tempDir, "checkout")
	require.NoError(t, db.CopyTo(context.Background(), rev, target))

	sentinel := filepath.Join(target, "untracked.txt")
	require.NoError(t, util.WriteFile(fs, sentinel, []byte("x"), 0o644))

	require.NoError(t, db.CopyTo(context.Background(), rev, target))
	_, err = fs.Stat(sentinel)
	assert.NoError(t, err, "a fresh checkout is not rewritten")
}

func TestDatabase_CopyToReplacesIncompleteCheckout(t *testing.T) {
	_, db, tempDir := setupDatabase(t)
	fs := osfs.New("/")

	rev, err := db.RevFor(core.DefaultReference())
	require.NoError(t, err)

	// Simulate an interrupted copy: files present, no marker.
	target := filepath.Join(tempDir, "checkout")
	require.NoError(t, util.WriteFile(fs, filepath.Join(target, "partial.txt"), []byte("x"), 0o644))
	assert.False(t, git.IsCheckoutFresh(fs, target, rev))

	require.NoError(t, db.CopyTo(context.Background(), rev, target))

	_, err = fs.Stat(filepath.Join(target, "partial.txt"))
	assert.Error(t, err, "stale files are removed")
	assert.True(t, git.IsCheckoutFresh(fs, target, rev))
}

func TestDatabase_CopyToCanceled(t *testing.T) {
	_, db, tempDir := setupDatabase(t)

	rev, err := db.RevFor(core.DefaultReference())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := filepath.Join(tempDir, "checkout")
	require.Error(t, db.CopyTo(ctx, rev, target))
	assert.False(t, git.IsCheckoutFresh(osfs.New("/"), target, rev))
}

func TestNewRevision(t *testing.T) {
	rev, ok := git.NewRevision("0123456789012345678901234567890123456789")
	require.True(t, ok)
	assert.Equal(t, "0123456789012345678901234567890123456789", rev.String())

	_, ok = git.NewRevision("not-a-hash")
	assert.False(t, ok)

	_, ok = git.NewRevision("0000000000000000000000000000000000000000")
	assert.False(t, ok)

	assert.True(t, git.Revision{}.IsZero())
}
