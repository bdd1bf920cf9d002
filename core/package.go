package core

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// PackageID uniquely identifies a package within a resolution.
type PackageID struct {
	Name    string
	Version *semver.Version
	Source  SourceID
}

// Equal reports whether two IDs name the same package from the same source.
func (id PackageID) Equal(other PackageID) bool {
	if id.Name != other.Name || id.Source.URL() != other.Source.URL() {
		return false
	}
	if id.Version == nil || other.Version == nil {
		return id.Version == other.Version
	}
	return id.Version.Equal(other.Version)
}

func (id PackageID) String() string {
	version := "?"
	if id.Version != nil {
		version = id.Version.String()
	}
	return fmt.Sprintf("%s v%s (%s)", id.Name, version, id.Source)
}

// Dependency is a request for a package by name and version constraint.
type Dependency struct {
	Name string
	Req  *semver.Constraints
}

// NewDependency parses req as a semver constraint. An empty req matches any
// version.
func NewDependency(name, req string) (Dependency, error) {
	if req == "" {
		req = "*"
	}
	c, err := semver.NewConstraint(req)
	if err != nil {
		return Dependency{}, fmt.Errorf("invalid version requirement %q for %s: %w", req, name, err)
	}
	return Dependency{Name: name, Req: c}, nil
}

// Matches reports whether s satisfies the dependency.
func (d Dependency) Matches(s Summary) bool {
	if d.Name != s.ID.Name {
		return false
	}
	if d.Req == nil {
		return true
	}
	return s.ID.Version != nil && d.Req.Check(s.ID.Version)
}

func (d Dependency) String() string {
	if d.Req == nil {
		return d.Name
	}
	return fmt.Sprintf("%s %s", d.Name, d.Req)
}

// Summary is the part of a package the dependency resolver works with.
type Summary struct {
	ID           PackageID
	Dependencies []Dependency
}

// Package is a package discovered on disk.
type Package struct {
	Summary      Summary
	ManifestPath string
}

// ID returns the package's identifier.
func (p *Package) ID() PackageID {
	return p.Summary.ID
}

// Registry answers dependency queries.
type Registry interface {
	Query(dep Dependency) ([]Summary, error)
}

// Source is the lifecycle contract the dependency resolver consumes.
type Source interface {
	Registry

	// Update brings the source up to date. It must succeed before any other
	// method is called.
	Update(ctx context.Context) error

	// Download returns the package with the given id.
	Download(id PackageID) (*Package, error)

	// Fingerprint returns a string that changes whenever the package's
	// contents may have changed.
	Fingerprint(pkg *Package) (string, error)
}

// PackageReader discovers packages in a directory tree.
type PackageReader interface {
	Registry

	// Update performs manifest discovery.
	Update(ctx context.Context) error

	// ReadPackages returns every discovered package.
	ReadPackages() ([]*Package, error)

	// Download returns the package with the given id.
	Download(id PackageID) (*Package, error)
}

// PackageReaderFactory builds a PackageReader rooted at dir for packages
// belonging to id.
type PackageReaderFactory func(dir string, id SourceID) PackageReader
