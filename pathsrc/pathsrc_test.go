package pathsrc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/go/gitsource/core"
	"github.com/jmgilman/go/gitsource/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/checkout"

func testID(t *testing.T) core.SourceID {
	t.Helper()
	id, err := core.NewGitSourceID("https://github.com/org/repo", core.DefaultReference())
	require.NoError(t, err)
	return id
}

func writeManifest(t *testing.T, fs billy.Filesystem, dir, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, filepath.Join(root, dir, ManifestName), []byte(content), 0o644))
}

func newTree(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	writeManifest(t, fs, ".", "name: app\nversion: 1.0.0\ndependencies:\n  - name: lib\n    version: ^0.2\n")
	writeManifest(t, fs, "libs/lib", "name: lib\nversion: 0.2.3\n")
	writeManifest(t, fs, "libs/lib-next", "name: lib\nversion: 0.3.0\n")
	writeManifest(t, fs, ".hidden/ghost", "name: ghost\nversion: 1.0.0\n")
	writeManifest(t, fs, "examples/demo", "name: demo\nversion: 1.0.0\n")
	return fs
}

func TestUpdate_DiscoversManifests(t *testing.T) {
	src := New(root, testID(t), WithFilesystem(newTree(t)), WithIgnore("examples/**"))
	require.NoError(t, src.Update(context.Background()))

	pkgs, err := src.ReadPackages()
	require.NoError(t, err)

	var names []string
	for _, p := range pkgs {
		names = append(names, p.ID().Name+"@"+p.ID().Version.String())
	}
	assert.Equal(t, []string{"app@1.0.0", "lib@0.2.3", "lib@0.3.0"}, names)

	app := pkgs[0]
	assert.Equal(t, filepath.Join(root, ManifestName), app.ManifestPath)
	assert.Equal(t, "https://github.com/org/repo", app.ID().Source.URL())
	require.Len(t, app.Summary.Dependencies, 1)
	assert.Equal(t, "lib", app.Summary.Dependencies[0].Name)
}

func TestUpdate_WithoutIgnoreIncludesEverythingVisible(t *testing.T) {
	src := New(root, testID(t), WithFilesystem(newTree(t)))
	require.NoError(t, src.Update(context.Background()))

	pkgs, err := src.ReadPackages()
	require.NoError(t, err)
	assert.Len(t, pkgs, 4)
}

func TestUpdate_DuplicatePackage(t *testing.T) {
	fs := memfs.New()
	writeManifest(t, fs, "a", "name: lib\nversion: 1.0.0\n")
	writeManifest(t, fs, "b", "name: lib\nversion: 1.0.0\n")

	err := New(root, testID(t), WithFilesystem(fs)).Update(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeConflict, errors.GetCode(err))
}

func TestUpdate_InvalidManifest(t *testing.T) {
	tests := map[string]string{
		"malformed":      "name: [x\n",
		"missing name":   "version: 1.0.0\n",
		"bad version":    "name: x\nversion: one\n",
		"bad dependency": "name: x\nversion: 1.0.0\ndependencies:\n  - name: y\n    version: \">>1\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			fs := memfs.New()
			writeManifest(t, fs, ".", content)

			err := New(root, testID(t), WithFilesystem(fs)).Update(context.Background())
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		})
	}
}

func TestUpdate_MissingRoot(t *testing.T) {
	err := New("/nowhere", testID(t), WithFilesystem(memfs.New())).Update(context.Background())
	require.Error(t, err)
}

func TestUpdate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(root, testID(t), WithFilesystem(newTree(t))).Update(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueryAndDownload(t *testing.T) {
	id := testID(t)
	src := New(root, id, WithFilesystem(newTree(t)))
	require.NoError(t, src.Update(context.Background()))

	dep, err := core.NewDependency("lib", "^0.2")
	require.NoError(t, err)

	summaries, err := src.Query(dep)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "0.2.3", summaries[0].ID.Version.String())

	pkg, err := src.Download(summaries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "libs/lib", ManifestName), pkg.ManifestPath)

	_, err = src.Download(core.PackageID{Name: "lib", Version: semver.MustParse("9.9.9"), Source: id})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestBeforeUpdate(t *testing.T) {
	src := New(root, testID(t), WithFilesystem(newTree(t)))

	_, err := src.ReadPackages()
	assert.Error(t, err)
	_, err = src.Query(core.Dependency{Name: "lib"})
	assert.Error(t, err)
	_, err = src.Download(core.PackageID{Name: "lib"})
	assert.Error(t, err)
}

func TestFactory(t *testing.T) {
	fs := newTree(t)
	reader := Factory(WithFilesystem(fs))(root, testID(t))

	require.NoError(t, reader.Update(context.Background()))
	pkgs, err := reader.ReadPackages()
	require.NoError(t, err)
	assert.NotEmpty(t, pkgs)
}
