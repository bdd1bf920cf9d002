package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// seedCheckout writes a checkout of size bytes and indexes it.
func seedCheckout(t *testing.T, c *RepositoryCache, ident, ref string, size int, lastAccess time.Time, withDB bool) string {
	t.Helper()

	rel := filepath.Join(ident, ref)
	if err := util.WriteFile(c.fs, filepath.Join(c.checkoutDir, rel, "data"), make([]byte, size), 0o644); err != nil {
		t.Fatalf("failed to seed checkout: %v", err)
	}
	if withDB {
		if err := c.fs.MkdirAll(c.DatabasePath(ident), 0o755); err != nil {
			t.Fatalf("failed to seed database: %v", err)
		}
	}

	key := indexKey(ident, ref)
	c.index.Checkouts[key] = &CheckoutMetadata{
		URL:        "https://example.com/" + ident,
		Ident:      ident,
		Reference:  ref,
		Revision:   "0123456789012345678901234567890123456789",
		Path:       rel,
		CreatedAt:  lastAccess,
		LastAccess: lastAccess,
	}
	return key
}

func newPruneCache(t *testing.T) *RepositoryCache {
	t.Helper()
	c, err := NewRepositoryCache("/home/git", WithFilesystem(memfs.New()))
	if err != nil {
		t.Fatalf("NewRepositoryCache() error = %v", err)
	}
	return c
}

func TestPrune_NoStrategies(t *testing.T) {
	c := newPruneCache(t)
	seedCheckout(t, c, "a-1", "master", 10, time.Now().Add(-48*time.Hour), true)

	removed, err := c.Prune()
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("expected nothing removed, got %d", len(removed))
	}
}

func TestPrune_OlderThanStrategy(t *testing.T) {
	c := newPruneCache(t)
	oldKey := seedCheckout(t, c, "a-1", "master", 10, time.Now().Add(-48*time.Hour), true)
	newKey := seedCheckout(t, c, "b-2", "master", 10, time.Now(), true)

	removed, err := c.Prune(PruneOlderThan(24 * time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	if len(removed) != 1 || removed[0].Ident != "a-1" {
		t.Fatalf("expected a-1 removed, got %+v", removed)
	}
	if c.index.get(oldKey) != nil {
		t.Error("old checkout still indexed")
	}
	if c.index.get(newKey) == nil {
		t.Error("recent checkout was removed from index")
	}
	if _, err := c.fs.Stat(filepath.Join(c.checkoutDir, "a-1", "master")); err == nil {
		t.Error("old checkout still on disk")
	}
	if _, err := c.fs.Stat(c.DatabasePath("a-1")); err != nil {
		t.Error("database must never be pruned")
	}
}

func TestPrune_OrphanedStrategy(t *testing.T) {
	c := newPruneCache(t)
	seedCheckout(t, c, "a-1", "master", 10, time.Now(), false)
	kept := seedCheckout(t, c, "b-2", "master", 10, time.Now(), true)

	removed, err := c.Prune(PruneOrphaned())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if len(removed) != 1 || removed[0].Ident != "a-1" {
		t.Fatalf("expected orphan a-1 removed, got %+v", removed)
	}
	if c.index.get(kept) == nil {
		t.Error("checkout with database was removed")
	}
}

func TestPrune_ToSizeStrategy(t *testing.T) {
	c := newPruneCache(t)
	now := time.Now()
	oldest := seedCheckout(t, c, "a-1", "master", 100, now.Add(-3*time.Hour), true)
	middle := seedCheckout(t, c, "b-2", "master", 100, now.Add(-2*time.Hour), true)
	newest := seedCheckout(t, c, "c-3", "master", 100, now.Add(-1*time.Hour), true)

	removed, err := c.Prune(PruneToSize(150))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	if len(removed) != 2 {
		t.Fatalf("expected 2 removed, got %+v", removed)
	}
	if c.index.get(oldest) != nil || c.index.get(middle) != nil {
		t.Error("least recently accessed checkouts should be removed first")
	}
	if c.index.get(newest) == nil {
		t.Error("newest checkout should be kept")
	}
}

func TestPrune_ToSizeUnderLimit(t *testing.T) {
	c := newPruneCache(t)
	seedCheckout(t, c, "a-1", "master", 100, time.Now(), true)

	removed, err := c.Prune(PruneToSize(1000))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("expected nothing removed, got %+v", removed)
	}
}

func TestPrune_PersistsIndex(t *testing.T) {
	c := newPruneCache(t)
	seedCheckout(t, c, "a-1", "master", 10, time.Now().Add(-48*time.Hour), true)

	if _, err := c.Prune(PruneOlderThan(time.Hour)); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	reloaded, err := loadOrCreateIndex(c.fs, c.indexPath)
	if err != nil {
		t.Fatalf("loadOrCreateIndex() error = %v", err)
	}
	if len(reloaded.Checkouts) != 0 {
		t.Errorf("expected empty persisted index, got %d entries", len(reloaded.Checkouts))
	}
}
