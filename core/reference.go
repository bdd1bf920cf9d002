package core

import "fmt"

// DefaultBranch is the branch used when a source names no reference.
const DefaultBranch = "master"

// Reference is the user's intent for which point in a repository's history to
// use. It is a closed set: Branch, Tag and Rev are the only implementations,
// so a type switch over them is exhaustive.
//
// A Reference does not carry a resolved revision.
type Reference interface {
	// Name returns the raw branch, tag or revision name.
	Name() string

	// DisplayString returns the diagnostic form of the reference. It reports
	// false for the default branch.
	DisplayString() (string, bool)

	isReference()
}

// Branch tracks the tip of a branch.
type Branch string

// Tag pins a tag.
type Tag string

// Rev pins an explicit revision (a commit hash or abbreviation).
type Rev string

// DefaultReference returns the reference used when none is specified.
func DefaultReference() Reference {
	return Branch(DefaultBranch)
}

func (b Branch) Name() string { return string(b) }
func (t Tag) Name() string    { return string(t) }
func (r Rev) Name() string    { return string(r) }

func (b Branch) DisplayString() (string, bool) {
	if b == DefaultBranch {
		return "", false
	}
	return fmt.Sprintf("branch=%s", string(b)), true
}

func (t Tag) DisplayString() (string, bool) {
	return fmt.Sprintf("tag=%s", string(t)), true
}

func (r Rev) DisplayString() (string, bool) {
	return fmt.Sprintf("rev=%s", string(r)), true
}

func (Branch) isReference() {}
func (Tag) isReference()    {}
func (Rev) isReference()    {}

// ParseReference builds a Reference from its kind ("branch", "tag" or "rev")
// and name. An empty kind yields the default branch.
func ParseReference(kind, name string) (Reference, error) {
	if kind == "" {
		return DefaultReference(), nil
	}
	if name == "" {
		return nil, fmt.Errorf("%s reference requires a name", kind)
	}
	switch kind {
	case "branch":
		return Branch(name), nil
	case "tag":
		return Tag(name), nil
	case "rev":
		return Rev(name), nil
	default:
		return nil, fmt.Errorf("unknown reference kind %q", kind)
	}
}
