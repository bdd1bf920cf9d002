package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	platformerrors "github.com/jmgilman/go/gitsource/errors"
)

// wrapError classifies err as a platform error and prefixes it with context.
// The original chain is kept for errors.Is/errors.As. Returns nil if err is nil.
func wrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, classifyError(err))
}

// classifyError maps go-git errors to platform error codes. Errors it does
// not recognize are returned unchanged.
//
//nolint:gocyclo,cyclop // each case is a simple mapping
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gogit.ErrRepositoryNotExists):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "repository does not exist")
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "repository not found")
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "reference not found")
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "object not found")
	case errors.Is(err, gogit.ErrRepositoryAlreadyExists):
		return platformerrors.Wrap(err, platformerrors.CodeAlreadyExists, "repository already exists")
	case errors.Is(err, gogit.ErrRemoteNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "remote not found")
	case errors.Is(err, gogit.ErrRemoteExists):
		return platformerrors.Wrap(err, platformerrors.CodeAlreadyExists, "remote already exists")
	case errors.Is(err, transport.ErrAuthenticationRequired):
		return platformerrors.Wrap(err, platformerrors.CodeUnauthorized, "authentication required")
	case errors.Is(err, transport.ErrAuthorizationFailed):
		return platformerrors.Wrap(err, platformerrors.CodeUnauthorized, "authorization failed")
	case errors.Is(err, transport.ErrInvalidAuthMethod):
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "invalid auth method")
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "remote repository is empty")
	case errors.Is(err, gogit.ErrMissingURL):
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "URL is required")
	case errors.Is(err, transport.ErrEmptyUploadPackRequest):
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "nothing to fetch")
	}

	return err
}

// remoteError wraps a failed fetch as CodeRemoteAccess. The classification of
// a recognized cause (an authorization failure, say) is preserved.
func remoteError(err error, url string) error {
	if err == nil {
		return nil
	}
	return platformerrors.WrapWithContext(classifyError(err), platformerrors.CodeRemoteAccess,
		fmt.Sprintf("failed to fetch %s", url), map[string]interface{}{"url": url})
}

// resolutionError wraps a failed reference lookup as CodeResolutionFailed.
func resolutionError(err error, what string) error {
	if err == nil {
		return nil
	}
	return platformerrors.Wrapf(classifyError(err), platformerrors.CodeResolutionFailed,
		"failed to find %s in repository", what)
}
