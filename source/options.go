package source

import (
	"github.com/jmgilman/go/gitsource/core"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/sirupsen/logrus"
)

// Option configures a GitSource.
type Option func(*GitSource)

// WithPackageReader sets how the package reader over a checkout is built.
// Defaults to a pathsrc reader honoring packages.ignore.
func WithPackageReader(factory core.PackageReaderFactory) Option {
	return func(s *GitSource) {
		s.readerFactory = factory
	}
}

// WithRemoteOperations overrides the fetch implementation selected by the
// configuration.
func WithRemoteOperations(ops git.RemoteOperations) Option {
	return func(s *GitSource) {
		s.remoteOps = ops
	}
}

// WithAuth sets credentials used when fetching, overriding net.ssh_key and
// net.token.
func WithAuth(auth git.Auth) Option {
	return func(s *GitSource) {
		s.auth = auth
	}
}

// WithLogger overrides the configuration's logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *GitSource) {
		s.log = logger
	}
}
