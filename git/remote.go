package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/jmgilman/go/gitsource/exec"
)

// RemoteOperations defines the network side of a repository database.
// Implementations must leave the repository usable when a fetch fails.
//
// The default implementation uses go-git. NewCLIRemoteOperations shells out
// to the system git binary instead, and tests substitute fakes.
type RemoteOperations interface {
	// Fetch downloads objects and refs described by opts.RefSpecs.
	// An up-to-date repository is not an error.
	Fetch(ctx context.Context, repo *Repository, opts FetchOptions) error
}

// defaultRemoteOps fetches with go-git.
type defaultRemoteOps struct{}

// NewRemoteOperations returns the go-git RemoteOperations used by default.
// It is exported so callers can decorate it.
func NewRemoteOperations() RemoteOperations {
	return &defaultRemoteOps{}
}

// Fetch implements RemoteOperations.Fetch using go-git's FetchContext.
func (d *defaultRemoteOps) Fetch(ctx context.Context, repo *Repository, opts FetchOptions) error {
	fetchOpts := &gogit.FetchOptions{
		RemoteName: remoteName(opts),
		Tags:       gogit.AllTags,
		Force:      true,
	}

	for _, spec := range opts.RefSpecs {
		fetchOpts.RefSpecs = append(fetchOpts.RefSpecs, config.RefSpec(spec))
	}

	if opts.Auth != nil {
		auth, ok := opts.Auth.(transport.AuthMethod)
		if !ok {
			return wrapError(fmt.Errorf("invalid auth type %T", opts.Auth), "failed to convert auth")
		}
		fetchOpts.Auth = auth
	}

	if opts.Depth > 0 {
		fetchOpts.Depth = opts.Depth
	}

	err := repo.repo.FetchContext(ctx, fetchOpts)
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return wrapError(err, "failed to fetch from remote")
	}

	return nil
}

// cliRemoteOps fetches by running `git fetch` in the repository directory.
// Credentials come from the user's git configuration, so opts.Auth is ignored.
type cliRemoteOps struct {
	git exec.Executor
}

// NewCLIRemoteOperations returns RemoteOperations backed by the git binary
// found on PATH. Repositories must live on the OS filesystem.
func NewCLIRemoteOperations() RemoteOperations {
	return &cliRemoteOps{
		git: exec.NewWrapper(exec.New(exec.WithInheritEnv()), "git"),
	}
}

// Fetch implements RemoteOperations.Fetch with `git fetch`.
func (c *cliRemoteOps) Fetch(ctx context.Context, repo *Repository, opts FetchOptions) error {
	dir := repo.fs.Root()
	if !onDisk(dir) {
		return wrapError(fmt.Errorf("repository %s is not on disk", repo.path), "git CLI fetch unavailable")
	}

	url := opts.URL
	if url == "" {
		url = remoteName(opts)
	}

	args := []string{"fetch", "--force", "--update-head-ok", "--tags"}
	if opts.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(opts.Depth))
	}
	args = append(args, url)
	args = append(args, opts.RefSpecs...)

	_, err := c.git.Clone().
		WithContext(ctx).
		WithDir(dir).
		WithEnv(map[string]string{"GIT_TERMINAL_PROMPT": "0"}).
		Run(args...)
	if err != nil {
		return fmt.Errorf("failed to fetch from remote: %w", err)
	}
	return nil
}

func remoteName(opts FetchOptions) string {
	if opts.RemoteName == "" {
		return originRemote
	}
	return opts.RemoteName
}

// onDisk reports whether dir names a directory on the OS filesystem. A
// repository held in memfs has a root that does not exist there.
func onDisk(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
