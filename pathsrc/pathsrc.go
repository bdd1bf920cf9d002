// Package pathsrc discovers packages in a directory tree.
//
// Every package.yaml below the root describes one package:
//
//	name: widget
//	version: 1.2.0
//	dependencies:
//	  - name: gadget
//	    version: ^0.3
//
// Hidden directories, .git and paths matching the configured doublestar
// ignore globs are skipped.
package pathsrc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/go/gitsource/core"
	"github.com/jmgilman/go/gitsource/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ManifestName is the file that marks a package directory.
const ManifestName = "package.yaml"

// Manifest is the on-disk form of a package.
type Manifest struct {
	Name         string               `yaml:"name"`
	Version      string               `yaml:"version"`
	Dependencies []ManifestDependency `yaml:"dependencies"`
}

// ManifestDependency is one entry of Manifest.Dependencies.
type ManifestDependency struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Source reads packages from a directory. It satisfies core.PackageReader.
type Source struct {
	root   string
	id     core.SourceID
	fs     billy.Filesystem
	ignore []string
	log    logrus.FieldLogger

	mu       sync.RWMutex
	packages []*core.Package
	updated  bool
}

// Option configures a Source.
type Option func(*Source)

// WithFilesystem sets the filesystem the tree is read from. Defaults to the
// OS filesystem rooted at "/".
func WithFilesystem(fs billy.Filesystem) Option {
	return func(s *Source) {
		s.fs = fs
	}
}

// WithIgnore skips paths matching any of the doublestar patterns. Patterns
// are matched against slash-separated paths relative to the root.
func WithIgnore(patterns ...string) Option {
	return func(s *Source) {
		s.ignore = append(s.ignore, patterns...)
	}
}

// WithLogger sets the logger for discovery diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Source) {
		s.log = logger
	}
}

// New returns a Source rooted at dir whose packages belong to id. Nothing is
// read until Update.
func New(dir string, id core.SourceID, opts ...Option) *Source {
	s := &Source{
		root: dir,
		id:   id,
		fs:   osfs.New("/"),
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("path", dir)
	return s
}

// Factory returns a core.PackageReaderFactory building Sources with opts.
func Factory(opts ...Option) core.PackageReaderFactory {
	return func(dir string, id core.SourceID) core.PackageReader {
		return New(dir, id, opts...)
	}
}

// Root returns the directory packages are read from.
func (s *Source) Root() string {
	return s.root
}

// Update walks the tree and loads every manifest. Two manifests with the
// same name and version are a CodeConflict error.
func (s *Source) Update(ctx context.Context) error {
	var manifests []string
	err := util.Walk(s.fs, s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") || s.ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Name() == ManifestName && !s.ignored(rel) {
			manifests = append(manifests, path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "failed to scan %s", s.root)
	}

	packages := make([]*core.Package, 0, len(manifests))
	seen := make(map[string]string, len(manifests))
	for _, path := range manifests {
		pkg, err := s.readManifest(path)
		if err != nil {
			return err
		}

		key := pkg.ID().Name + "@" + pkg.ID().Version.String()
		if prev, ok := seen[key]; ok {
			return errors.WrapWithContext(
				fmt.Errorf("found %s in %s and %s", key, prev, path),
				errors.CodeConflict,
				"duplicate package",
				map[string]interface{}{"package": key},
			)
		}
		seen[key] = path
		packages = append(packages, pkg)
	}

	sort.Slice(packages, func(i, j int) bool {
		a, b := packages[i].ID(), packages[j].ID()
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Version.LessThan(b.Version)
	})

	s.log.WithField("packages", len(packages)).Debug("discovered packages")

	s.mu.Lock()
	s.packages = packages
	s.updated = true
	s.mu.Unlock()
	return nil
}

func (s *Source) ignored(rel string) bool {
	for _, pattern := range s.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (s *Source) readManifest(path string) (*core.Package, error) {
	data, err := util.ReadFile(s.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "failed to read %s", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "failed to parse %s", path)
	}
	if m.Name == "" {
		return nil, errors.Newf(errors.CodeInvalidInput, "%s: 'name' is required", path)
	}

	version, err := semver.NewVersion(m.Version)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "%s: invalid version %q", path, m.Version)
	}

	deps := make([]core.Dependency, 0, len(m.Dependencies))
	for _, d := range m.Dependencies {
		dep, err := core.NewDependency(d.Name, d.Version)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeInvalidInput, "%s", path)
		}
		deps = append(deps, dep)
	}

	return &core.Package{
		Summary: core.Summary{
			ID: core.PackageID{
				Name:    m.Name,
				Version: version,
				Source:  s.id,
			},
			Dependencies: deps,
		},
		ManifestPath: path,
	}, nil
}

// ReadPackages returns every package found by the last Update.
func (s *Source) ReadPackages() ([]*core.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.updated {
		return nil, errNotUpdated(s.root)
	}
	out := make([]*core.Package, len(s.packages))
	copy(out, s.packages)
	return out, nil
}

// Query returns the summaries of packages matching dep.
func (s *Source) Query(dep core.Dependency) ([]core.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.updated {
		return nil, errNotUpdated(s.root)
	}
	var out []core.Summary
	for _, pkg := range s.packages {
		if dep.Matches(pkg.Summary) {
			out = append(out, pkg.Summary)
		}
	}
	return out, nil
}

// Download returns the package with exactly id, or a CodeNotFound error.
func (s *Source) Download(id core.PackageID) (*core.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.updated {
		return nil, errNotUpdated(s.root)
	}
	for _, pkg := range s.packages {
		if pkg.ID().Equal(id) {
			return pkg, nil
		}
	}
	return nil, errors.Newf(errors.CodeNotFound, "failed to find %s in %s", id, s.root)
}

func errNotUpdated(root string) error {
	return errors.Newf(errors.CodeInternal, "packages in %s have not been read yet", root)
}
