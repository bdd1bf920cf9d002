package cache

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/go/gitsource/core"
)

func TestNewRepositoryCache(t *testing.T) {
	t.Run("creates cache directory structure", func(t *testing.T) {
		fs := memfs.New()

		cache, err := NewRepositoryCache("/home/git", WithFilesystem(fs))
		if err != nil {
			t.Fatalf("NewRepositoryCache() error = %v", err)
		}

		if _, err := fs.Stat("/home/git/db"); err != nil {
			t.Errorf("db directory was not created: %v", err)
		}
		if _, err := fs.Stat("/home/git/checkouts"); err != nil {
			t.Errorf("checkouts directory was not created: %v", err)
		}
		if cache.Root() != "/home/git" {
			t.Errorf("Root() = %q, want /home/git", cache.Root())
		}
		if cache.index == nil || cache.index.Version != indexVersion {
			t.Errorf("index not initialized: %+v", cache.index)
		}
	})

	t.Run("replaces unreadable index", func(t *testing.T) {
		fs := memfs.New()
		if err := util.WriteFile(fs, "/home/git/index.json", []byte("{not json"), 0o644); err != nil {
			t.Fatalf("failed to write index: %v", err)
		}

		cache, err := NewRepositoryCache("/home/git", WithFilesystem(fs))
		if err != nil {
			t.Fatalf("NewRepositoryCache() error = %v", err)
		}
		if len(cache.index.list()) != 0 {
			t.Errorf("expected empty index, got %d entries", len(cache.index.list()))
		}
	})
}

func TestLayoutPaths(t *testing.T) {
	cache, err := NewRepositoryCache("/home/git", WithFilesystem(memfs.New()))
	if err != nil {
		t.Fatalf("NewRepositoryCache() error = %v", err)
	}

	if got := cache.DatabasePath("repo-abc"); got != "/home/git/db/repo-abc" {
		t.Errorf("DatabasePath() = %q", got)
	}

	tests := []struct {
		name     string
		ref      core.Reference
		expected string
	}{
		{"default branch", core.DefaultReference(), "/home/git/checkouts/repo-abc/master"},
		{"nested branch", core.Branch("feature/x"), "/home/git/checkouts/repo-abc/feature/x"},
		{"tag", core.Tag("v1.0.0"), "/home/git/checkouts/repo-abc/v1.0.0"},
		{"escaping name is confined", core.Branch("../../../etc"), "/home/git/checkouts/repo-abc/etc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cache.CheckoutPath("repo-abc", tt.ref)
			if err != nil {
				t.Fatalf("CheckoutPath() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("CheckoutPath() = %q, want %q", got, tt.expected)
			}
		})
	}

	if _, err := cache.CheckoutPath("repo-abc", core.Branch("..")); err == nil {
		t.Error("expected error for reference resolving to the identity directory")
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	id := env.sourceID(core.DefaultReference())

	res, err := env.cache.Resolve(env.ctx, id)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, err := env.cache.Materialize(env.ctx, res); err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	stats, err := env.cache.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if stats.Databases != 1 {
		t.Errorf("Databases = %d, want 1", stats.Databases)
	}
	if stats.Checkouts != 1 {
		t.Errorf("Checkouts = %d, want 1", stats.Checkouts)
	}
	if stats.DatabaseSize == 0 || stats.CheckoutsSize == 0 {
		t.Errorf("expected non-zero sizes, got %+v", stats)
	}
	if stats.TotalSize != stats.DatabaseSize+stats.CheckoutsSize {
		t.Errorf("TotalSize = %d, want %d", stats.TotalSize, stats.DatabaseSize+stats.CheckoutsSize)
	}
	if stats.OldestCheckout == nil || stats.NewestCheckout == nil {
		t.Error("expected checkout timestamps")
	}

	checkouts := env.cache.Checkouts()
	if len(checkouts) != 1 || !strings.HasPrefix(checkouts[0].Ident, "source-") {
		t.Errorf("unexpected checkouts %+v", checkouts)
	}
	if checkouts[0].Path != filepath.Join(checkouts[0].Ident, "master") {
		t.Errorf("Path = %q", checkouts[0].Path)
	}
}
