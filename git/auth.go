package git

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	platformerrors "github.com/jmgilman/go/gitsource/errors"
)

// SSHKeyOption configures SSH key authentication.
type SSHKeyOption func(*sshKeyOptions)

type sshKeyOptions struct {
	passphrase string
}

// WithSSHPassword sets the passphrase of an encrypted key.
func WithSSHPassword(passphrase string) SSHKeyOption {
	return func(opts *sshKeyOptions) {
		opts.passphrase = passphrase
	}
}

// SSHKeyAuth creates SSH authentication from PEM-encoded key bytes. A key
// that cannot be parsed or decrypted is reported with CodeInvalidInput.
//
// Example:
//
//	auth, err := git.SSHKeyAuth("git", keyBytes, git.WithSSHPassword("passphrase"))
//	remote := git.NewRemote("git@github.com:org/repo.git", git.WithAuth(auth))
func SSHKeyAuth(user string, pemBytes []byte, opts ...SSHKeyOption) (Auth, error) {
	options := &sshKeyOptions{}
	for _, opt := range opts {
		opt(options)
	}

	keys, err := ssh.NewPublicKeys(user, pemBytes, options.passphrase)
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "failed to parse SSH key")
	}
	return keys, nil
}

// SSHKeyFile reads a private key at keyPath on fs and creates SSH
// authentication from it.
func SSHKeyFile(fs billy.Filesystem, user, keyPath string, opts ...SSHKeyOption) (Auth, error) {
	pemBytes, err := util.ReadFile(fs, keyPath)
	if err != nil {
		return nil, platformerrors.Wrapf(err, platformerrors.CodeInvalidInput, "failed to read SSH key %s", keyPath)
	}
	return SSHKeyAuth(user, pemBytes, opts...)
}

// BasicAuth creates HTTP basic authentication, typically a username and a
// personal access token.
func BasicAuth(username, password string) Auth {
	return &http.BasicAuth{
		Username: username,
		Password: password,
	}
}

var _ Auth = (transport.AuthMethod)(nil)
