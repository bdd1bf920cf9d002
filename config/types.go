package config

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/jmgilman/go/gitsource/shell"
	"github.com/sirupsen/logrus"
)

const (
	// HomeEnv overrides the configured home directory.
	HomeEnv = "GITSOURCE_HOME"

	// FetchWithCLIEnv overrides net.git_fetch_with_cli when set to a
	// boolean string.
	FetchWithCLIEnv = "GITSOURCE_NET_GIT_FETCH_WITH_CLI"

	// TokenEnv overrides net.token.
	TokenEnv = "GITSOURCE_NET_TOKEN"

	// DefaultSSHUser is presented with net.ssh_key when net.ssh_user is unset.
	DefaultSSHUser = "git"

	// DefaultTokenUser accompanies net.token when net.username is unset.
	DefaultTokenUser = "x-access-token"

	// DefaultLogLevel is used when log.level is unset.
	DefaultLogLevel = "warn"

	gitDirName   = "git"
	lockFileName = ".package-cache"
)

// Config holds the settings shared by every git source in a process.
type Config struct {
	// Home is the base directory for all cached data. Git databases and
	// checkouts live under <home>/git.
	Home string `yaml:"home"`

	Net      NetConfig      `yaml:"net"`
	Log      LogConfig      `yaml:"log"`
	Lock     LockConfig     `yaml:"lock"`
	Packages PackagesConfig `yaml:"packages"`

	fs     billy.Filesystem
	shell  *shell.Shell
	logger logrus.FieldLogger
}

// NetConfig controls how remotes are contacted.
type NetConfig struct {
	// GitFetchWithCLI fetches with the git executable instead of go-git.
	GitFetchWithCLI bool `yaml:"git_fetch_with_cli"`

	// Depth limits fetch history. Zero fetches everything.
	Depth int `yaml:"depth"`

	// SSHKey is the absolute path of a private key for ssh remotes.
	SSHKey string `yaml:"ssh_key"`

	// SSHKeyPassphrase decrypts SSHKey.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`

	SSHUser string `yaml:"ssh_user"`

	// Token is sent as the password of HTTP basic auth.
	Token string `yaml:"token"`

	Username string `yaml:"username"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Level is a logrus level name such as "debug" or "info".
	Level string `yaml:"level"`
}

// LockConfig controls the package cache lock.
type LockConfig struct {
	// PollInterval is how often a blocked lock is retried, e.g. "250ms".
	PollInterval time.Duration `yaml:"poll_interval"`
}

// PackagesConfig controls manifest discovery in checkouts.
type PackagesConfig struct {
	// Ignore lists doublestar globs, relative to the checkout root, that
	// are skipped during discovery.
	Ignore []string `yaml:"ignore"`
}

// Option configures a Config after it is loaded.
type Option func(*Config)
