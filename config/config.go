// Package config loads the settings shared by git sources and hands out the
// process-wide services built from them: the package cache lock, the status
// shell, the diagnostic logger and the fetch implementation.
//
// A configuration file is optional:
//
//	home: /var/cache/gitsource
//	net:
//	  git_fetch_with_cli: true
//	  depth: 1
//	  ssh_key: /home/me/.ssh/id_ed25519
//	log:
//	  level: debug
//	lock:
//	  poll_interval: 250ms
//	packages:
//	  ignore:
//	    - "examples/**"
package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/lock"
	"github.com/jmgilman/go/gitsource/shell"
	"github.com/sirupsen/logrus"
)

// WithHome sets the home directory.
func WithHome(home string) Option {
	return func(c *Config) {
		if home != "" {
			c.Home = home
		}
	}
}

// WithFilesystem sets the filesystem used for reading the config file and
// for cache contents. The lock always lives on the OS filesystem.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(c *Config) {
		c.fs = fs
	}
}

// WithShell sets where user-facing status lines are written.
func WithShell(sh *shell.Shell) Option {
	return func(c *Config) {
		c.shell = sh
	}
}

// WithLogger sets the diagnostic logger. log.level is not applied to it.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

// servicesMu guards lazy construction of the shell and logger.
var servicesMu sync.Mutex

// GitDir returns <home>/git, the root of the git cache.
func (c *Config) GitDir() string {
	return filepath.Join(c.Home, gitDirName)
}

// LockGit acquires the exclusive lock guarding GitDir. The caller must
// Unlock it; Parent() of the returned lock is GitDir.
func (c *Config) LockGit(ctx context.Context) (*lock.Lock, error) {
	return lock.Acquire(ctx, filepath.Join(c.GitDir(), lockFileName),
		lock.WithShell(c.Shell()),
		lock.WithLogger(c.Logger()),
		lock.WithPollInterval(c.Lock.PollInterval),
		lock.WithDescription("package cache"),
	)
}

// Filesystem returns the filesystem cache contents are written to.
func (c *Config) Filesystem() billy.Filesystem {
	return c.fs
}

// Shell returns the status shell, writing to stderr unless configured.
func (c *Config) Shell() *shell.Shell {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	if c.shell == nil {
		c.shell = shell.Default()
	}
	return c.shell
}

// Logger returns the diagnostic logger. Without WithLogger a logger writing
// to stderr at log.level is created.
func (c *Config) Logger() logrus.FieldLogger {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	if c.logger == nil {
		l := logrus.New()
		l.SetOutput(os.Stderr)
		if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
			l.SetLevel(level)
		}
		c.logger = l
	}
	return c.logger
}

// RemoteOperations returns the fetch implementation selected by
// net.git_fetch_with_cli.
func (c *Config) RemoteOperations() git.RemoteOperations {
	if c.Net.GitFetchWithCLI {
		return git.NewCLIRemoteOperations()
	}
	return git.NewRemoteOperations()
}

// Auth returns the credentials configured under net, or nil when neither
// net.ssh_key nor net.token is set. The key is read from Filesystem. They
// only apply to the go-git fetch; the git executable uses its own
// credential helpers.
func (c *Config) Auth() (git.Auth, error) {
	switch {
	case c.Net.SSHKey != "":
		user := c.Net.SSHUser
		if user == "" {
			user = DefaultSSHUser
		}
		var opts []git.SSHKeyOption
		if c.Net.SSHKeyPassphrase != "" {
			opts = append(opts, git.WithSSHPassword(c.Net.SSHKeyPassphrase))
		}
		auth, err := git.SSHKeyFile(c.Filesystem(), user, c.Net.SSHKey, opts...)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "net.ssh_key is unusable")
		}
		return auth, nil
	case c.Net.Token != "":
		user := c.Net.Username
		if user == "" {
			user = DefaultTokenUser
		}
		return git.BasicAuth(user, c.Net.Token), nil
	}
	return nil, nil
}
