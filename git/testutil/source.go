// Package testutil builds throwaway upstream repositories for tests that
// exercise fetching, resolution and checkouts.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/jmgilman/go/gitsource/git"
)

// Test user information used for every fixture commit.
const (
	TestAuthor = "Test User"
	TestEmail  = "test@example.com"
)

// SourceRepo is an on-disk repository acting as the remote end of a fetch.
// Its path is usable directly as a remote URL.
type SourceRepo struct {
	t    testing.TB
	path string
	fs   billy.Filesystem
	repo *git.Repository
}

// NewSourceRepo initializes a repository at path on the OS filesystem and
// commits a single test.txt to master.
func NewSourceRepo(t testing.TB, path string) *SourceRepo {
	t.Helper()

	fs := osfs.New("/")
	repo, err := git.Init(path, git.WithFilesystem(fs))
	if err != nil {
		t.Fatalf("failed to init source repo: %v", err)
	}

	s := &SourceRepo{t: t, path: path, fs: fs, repo: repo}
	s.Commit("initial commit", map[string]string{"test.txt": "test content\n"})
	return s
}

// Path returns the repository directory.
func (s *SourceRepo) Path() string {
	return s.path
}

// Filesystem returns the filesystem the repository lives on.
func (s *SourceRepo) Filesystem() billy.Filesystem {
	return s.fs
}

// Commit writes files relative to the repository root, commits them on the
// current branch and returns the new commit id.
func (s *SourceRepo) Commit(message string, files map[string]string) string {
	s.t.Helper()

	wt, err := s.repo.Underlying().Worktree()
	if err != nil {
		s.t.Fatalf("failed to get worktree: %v", err)
	}

	for name, content := range files {
		full := filepath.Join(s.path, filepath.FromSlash(name))
		if err := s.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			s.t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := util.WriteFile(s.fs, full, []byte(content), 0o644); err != nil {
			s.t.Fatalf("failed to write %s: %v", name, err)
		}
		if _, err := wt.Add(name); err != nil {
			s.t.Fatalf("failed to add %s: %v", name, err)
		}
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author:            signature(),
		AllowEmptyCommits: len(files) == 0,
	})
	if err != nil {
		s.t.Fatalf("failed to commit: %v", err)
	}

	head, err := s.repo.Underlying().Storer.Reference(plumbing.HEAD)
	if err != nil {
		s.t.Fatalf("failed to read HEAD: %v", err)
	}
	if head.Type() == plumbing.SymbolicReference {
		ref := plumbing.NewHashReference(head.Target(), hash)
		if err := s.repo.Underlying().Storer.SetReference(ref); err != nil {
			s.t.Fatalf("failed to advance %s: %v", head.Target(), err)
		}
	}

	return hash.String()
}

// Branch creates or moves branch name to the commit rev.
func (s *SourceRepo) Branch(name, rev string) {
	s.t.Helper()

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), plumbing.NewHash(rev))
	if err := s.repo.Underlying().Storer.SetReference(ref); err != nil {
		s.t.Fatalf("failed to set branch %s: %v", name, err)
	}
}

// Checkout switches HEAD to branch name without touching the worktree, so
// subsequent commits land on that branch.
func (s *SourceRepo) Checkout(name string) {
	s.t.Helper()

	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(name))
	if err := s.repo.Underlying().Storer.SetReference(head); err != nil {
		s.t.Fatalf("failed to switch HEAD to %s: %v", name, err)
	}
}

// Tag creates a lightweight tag at rev.
func (s *SourceRepo) Tag(name, rev string) {
	s.t.Helper()

	ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), plumbing.NewHash(rev))
	if err := s.repo.Underlying().Storer.SetReference(ref); err != nil {
		s.t.Fatalf("failed to set tag %s: %v", name, err)
	}
}

// AnnotatedTag creates an annotated tag at rev.
func (s *SourceRepo) AnnotatedTag(name, rev string) {
	s.t.Helper()

	_, err := s.repo.Underlying().CreateTag(name, plumbing.NewHash(rev), &gogit.CreateTagOptions{
		Tagger:  signature(),
		Message: "release " + name,
	})
	if err != nil {
		s.t.Fatalf("failed to create tag %s: %v", name, err)
	}
}

func signature() *object.Signature {
	return &object.Signature{
		Name:  TestAuthor,
		Email: TestEmail,
		When:  time.Now(),
	}
}
