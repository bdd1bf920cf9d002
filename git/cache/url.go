package cache

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	giturls "github.com/chainguard-dev/git-urls"
	"github.com/jmgilman/go/gitsource/errors"
)

const (
	// githubHost is treated as case-insensitive in its path. This is an
	// approximation of GitHub's behavior and not applied to any other host.
	githubHost = "github.com"

	vcsSuffix = ".git"

	// emptyIdentTag names repositories whose URL has no path segments.
	emptyIdentTag = "_empty"
)

// CanonicalURL is a normalized repository URL. It is only used to compare
// repositories and derive identities, never to access the network.
type CanonicalURL string

// String returns the canonical URL.
func (c CanonicalURL) String() string {
	return string(c)
}

// Canonicalize normalizes rawURL so that URLs denoting the same repository
// compare equal. The rules are:
//
//  1. a trailing "/" is stripped
//  2. on github.com the scheme becomes https and the path is lowercased
//  3. a trailing ".git" is stripped
//
// The host is lowercased. Query, fragment and credentials are kept as is.
// The rules apply to the escaped path, so percent-encoding in the input is
// preserved. They are repeated until none applies, so Canonicalize is
// idempotent. scp-style addresses (git@host:org/repo) and local paths are
// accepted; relative local paths are made absolute against the working
// directory.
//
// Examples:
//   - https://github.com/Org/Repo.git/ → https://github.com/org/repo
//   - https://GitHub.com/Org/Repo      → https://github.com/org/repo
//   - git://github.com/org/repo        → https://github.com/org/repo
//   - git@github.com:org/repo.git      → https://git@github.com/org/repo
//   - https://gitlab.com/Org/Repo.git  → https://gitlab.com/Org/Repo
func Canonicalize(rawURL string) (CanonicalURL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", errors.New(errors.CodeInvalidInput, "repository URL is empty")
	}

	u, err := giturls.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeInvalidInput, "invalid repository URL %q", rawURL)
	}

	if isRelativeLocal(u) {
		abs, err := filepath.Abs(u.Path)
		if err != nil {
			return "", errors.Wrapf(err, errors.CodeInvalidInput, "invalid repository path %q", rawURL)
		}
		u.Path = filepath.ToSlash(abs)
		u.RawPath = ""
	}

	u.Host = strings.ToLower(u.Host)

	for {
		before := u.String()
		canonicalizeOnce(u)
		if u.String() == before {
			break
		}
	}

	return CanonicalURL(u.String()), nil
}

func canonicalizeOnce(u *url.URL) {
	if p := u.EscapedPath(); strings.HasSuffix(p, "/") {
		setEscapedPath(u, strings.TrimSuffix(p, "/"))
	}

	if u.Hostname() == githubHost {
		u.Scheme = "https"
		lowerPath(u)
	}

	if p := u.EscapedPath(); strings.HasSuffix(p, vcsSuffix) {
		setEscapedPath(u, strings.TrimSuffix(p, vcsSuffix))
	}
}

// setEscapedPath replaces the path with the escaped form p, keeping p as the
// wire form.
func setEscapedPath(u *url.URL, p string) {
	if path, err := url.PathUnescape(p); err == nil {
		u.Path = path
		u.RawPath = p
	}
}

// lowerPath lowercases the path. The escaped form is kept when it still
// encodes the lowercased path.
func lowerPath(u *url.URL) {
	path := strings.ToLower(u.Path)
	raw := lowerEscaped(u.EscapedPath())
	if dec, err := url.PathUnescape(raw); err == nil && dec == path {
		u.Path, u.RawPath = path, raw
		return
	}
	u.Path, u.RawPath = path, ""
}

// lowerEscaped lowercases the text that the escaped path p encodes. Runs of
// escapes are decoded, lowercased and escaped again with uppercase hex.
func lowerEscaped(p string) string {
	var b strings.Builder
	for i := 0; i < len(p); {
		if p[i] != '%' {
			j := strings.IndexByte(p[i:], '%')
			if j < 0 {
				j = len(p) - i
			}
			b.WriteString(strings.ToLower(p[i : i+j]))
			i += j
			continue
		}

		j := i
		for j+3 <= len(p) && p[j] == '%' {
			j += 3
		}
		dec, err := url.PathUnescape(p[i:j])
		if j == i || err != nil {
			b.WriteString(p[i:])
			break
		}
		for _, c := range []byte(strings.ToLower(dec)) {
			fmt.Fprintf(&b, "%%%02X", c)
		}
		i = j
	}
	return b.String()
}

// isRelativeLocal reports whether u is a local path that does not start at
// the filesystem root.
func isRelativeLocal(u *url.URL) bool {
	return u.Scheme == "file" && u.Host == "" && u.Opaque == "" &&
		u.Path != "" && !strings.HasPrefix(u.Path, "/") && !filepath.IsAbs(u.Path)
}

// Ident derives the cache directory name for rawURL: the last path segment
// of its canonical form followed by a hash of the whole canonical URL, for
// example "repo-5c2dd1a0b8f4e7c3". URLs without a path use "_empty" as the
// readable part. Equal canonical URLs always produce equal identities.
func Ident(rawURL string) (string, error) {
	canonical, err := Canonicalize(rawURL)
	if err != nil {
		return "", err
	}
	return IdentOf(canonical), nil
}

// IdentOf derives the identity of an already canonical URL.
func IdentOf(canonical CanonicalURL) string {
	tag := emptyIdentTag
	if u, err := url.Parse(canonical.String()); err == nil {
		if seg := lastSegment(u.Path); seg != "" {
			tag = sanitize(seg)
		}
	}
	return fmt.Sprintf("%s-%016x", tag, xxhash.Sum64String(canonical.String()))
}

// SameRepository reports whether a and b canonicalize identically.
func SameRepository(a, b string) bool {
	ca, errA := Canonicalize(a)
	cb, errB := Canonicalize(b)
	return errA == nil && errB == nil && ca == cb
}

func lastSegment(p string) string {
	segments := strings.Split(p, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

// sanitize keeps the readable part of an identity filesystem-safe.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if out := b.String(); out != "." && out != ".." {
		return out
	}
	return emptyIdentTag
}
