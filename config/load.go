package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/go/gitsource/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// New returns a Config holding defaults, environment overrides and opts.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return finish(cfg, opts)
}

// Load reads the YAML configuration at path. A missing file yields the
// defaults. Environment overrides are applied after the file, and opts
// after both.
//
// Malformed YAML and invalid values are reported with
// CodeInvalidConfig.
func Load(path string, opts ...Option) (*Config, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.fs == nil {
		cfg.fs = osfs.New("/")
	}

	data, err := util.ReadFile(cfg.fs, path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, errors.CodeInvalidConfig, "parsing config %s", path)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrapf(err, errors.CodeInvalidConfig, "reading config %s", path)
	}

	return finish(cfg, opts)
}

func finish(cfg *Config, opts []Option) (*Config, error) {
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	// Options win over both the file and the environment.
	for _, opt := range opts {
		opt(cfg)
	}
	applyDefaults(cfg)

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, errors.WithContext(
			errors.New(errors.CodeInvalidConfig, fmt.Sprintf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))),
			"errors", errs,
		)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if home := os.Getenv(HomeEnv); home != "" {
		cfg.Home = home
	}
	if v := os.Getenv(FetchWithCLIEnv); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, errors.CodeInvalidConfig, "invalid %s value %q", FetchWithCLIEnv, v)
		}
		cfg.Net.GitFetchWithCLI = b
	}
	if token := os.Getenv(TokenEnv); token != "" {
		cfg.Net.Token = token
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Home == "" {
		cfg.Home = DefaultHome()
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.fs == nil {
		cfg.fs = osfs.New("/")
	}
}

// DefaultHome returns $XDG_CACHE_HOME/gitsource, falling back to
// ~/.cache/gitsource and finally to a directory under the temp dir.
func DefaultHome() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "gitsource")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "gitsource")
	}
	return filepath.Join(os.TempDir(), "gitsource")
}

// Validate checks cfg for semantic correctness and returns every problem
// found.
func Validate(cfg *Config) []string {
	var errs []string

	if !filepath.IsAbs(cfg.Home) {
		errs = append(errs, fmt.Sprintf("home: %q must be an absolute path", cfg.Home))
	}
	if cfg.Net.Depth < 0 {
		errs = append(errs, fmt.Sprintf("net.depth: %d must not be negative", cfg.Net.Depth))
	}
	if cfg.Net.SSHKey != "" && cfg.Net.Token != "" {
		errs = append(errs, "net: ssh_key and token are mutually exclusive")
	}
	if cfg.Net.SSHKey != "" && !filepath.IsAbs(cfg.Net.SSHKey) {
		errs = append(errs, fmt.Sprintf("net.ssh_key: %q must be an absolute path", cfg.Net.SSHKey))
	}
	if cfg.Log.Level != "" {
		if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
			errs = append(errs, fmt.Sprintf("log.level: %v", err))
		}
	}
	if cfg.Lock.PollInterval < 0 {
		errs = append(errs, fmt.Sprintf("lock.poll_interval: %s must not be negative", cfg.Lock.PollInterval))
	}
	for i, pattern := range cfg.Packages.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Sprintf("packages.ignore[%d]: invalid pattern %q", i, pattern))
		}
	}

	return errs
}
