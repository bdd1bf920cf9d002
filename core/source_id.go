package core

import (
	"fmt"
	"strings"

	"github.com/jmgilman/go/gitsource/errors"
)

// SourceID locates a version-controlled package source: the remote URL, the
// symbolic reference the user asked for and, once known, the precise
// revision it was pinned to.
//
// SourceID is a value type. Pinning produces a new SourceID via WithPrecise.
type SourceID struct {
	url       string
	reference Reference
	precise   string
}

// NewGitSourceID creates a SourceID for a git repository. A nil reference
// means the default branch.
func NewGitSourceID(url string, ref Reference) (SourceID, error) {
	if strings.TrimSpace(url) == "" {
		return SourceID{}, errors.New(errors.CodeInvalidInput, "git source URL is required")
	}
	if ref == nil {
		ref = DefaultReference()
	}
	return SourceID{url: url, reference: ref}, nil
}

// URL returns the raw repository URL as given by the user.
func (s SourceID) URL() string {
	return s.url
}

// Reference returns the symbolic reference.
func (s SourceID) Reference() Reference {
	return s.reference
}

// Precise returns the pinned revision, if any.
func (s SourceID) Precise() (string, bool) {
	return s.precise, s.precise != ""
}

// WithPrecise returns a copy of s pinned to rev. An empty rev removes the pin.
func (s SourceID) WithPrecise(rev string) SourceID {
	s.precise = rev
	return s
}

// ResolutionReference returns the reference that should be resolved against
// a repository: the precise revision when pinned, the symbolic reference
// otherwise.
func (s SourceID) ResolutionReference() Reference {
	if s.precise != "" {
		return Rev(s.precise)
	}
	return s.reference
}

// IsZero reports whether s is the zero SourceID.
func (s SourceID) IsZero() bool {
	return s.url == ""
}

// String renders git+<url>[?<ref>][#<precise>].
func (s SourceID) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "git+%s", s.url)
	if s.reference != nil {
		if display, ok := s.reference.DisplayString(); ok {
			fmt.Fprintf(&b, "?%s", display)
		}
	}
	if s.precise != "" {
		fmt.Fprintf(&b, "#%s", s.precise)
	}
	return b.String()
}
