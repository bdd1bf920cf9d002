package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmgilman/go/gitsource/config"
	"github.com/jmgilman/go/gitsource/core"
	"github.com/jmgilman/go/gitsource/git/cache"
	"github.com/jmgilman/go/gitsource/git/testutil"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args after resetting every flag
// variable, and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.HomeEnv, "")
	t.Setenv(config.FetchWithCLIEnv, "")
	t.Setenv(config.TokenEnv, "")

	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	homeDir, logLevel = "", ""
	updateBranch, updateTag, updateRev, updatePrecise = "", "", "", ""
	pruneOlderThan, pruneMaxSize, pruneOrphaned = 0, "", false
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--config", configPath))
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestReferenceFromFlags(t *testing.T) {
	tests := []struct {
		branch, tag, rev string
		want             core.Reference
	}{
		{want: core.DefaultReference()},
		{branch: "dev", want: core.Branch("dev")},
		{tag: "v1.0.0", want: core.Tag("v1.0.0")},
		{rev: "abc123", want: core.Rev("abc123")},
	}
	for _, tt := range tests {
		got, err := referenceFromFlags(tt.branch, tt.tag, tt.rev)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestPruneStrategies(t *testing.T) {
	s, err := pruneStrategies(0, "", false)
	require.NoError(t, err)
	assert.Empty(t, s)

	s, err = pruneStrategies(time.Hour, "5GB", true)
	require.NoError(t, err)
	assert.Len(t, s, 3)

	_, err = pruneStrategies(0, "lots", false)
	assert.Error(t, err)
}

func TestIdentCommand(t *testing.T) {
	stdout, err := run(t, "ident", "git://github.com/Org/Repo.git/")
	require.NoError(t, err)

	ident, err := cache.Ident("https://github.com/org/repo")
	require.NoError(t, err)
	assert.Contains(t, stdout, "canonical: https://github.com/org/repo")
	assert.Contains(t, stdout, "ident:     "+ident)
}

func TestUpdateStatsAndPrune(t *testing.T) {
	home := t.TempDir()
	src := testutil.NewSourceRepo(t, filepath.Join(t.TempDir(), "upstream"))
	head := src.Commit("add package", map[string]string{"package.yaml": "name: app\nversion: 1.2.3\n"})
	src.Tag("v1.2.3", head)

	stdout, err := run(t, "update", src.Path(), "--tag", "v1.2.3", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, stdout, "fingerprint: "+head)
	assert.Contains(t, stdout, "app 1.2.3")
	assert.Contains(t, stdout, "(tag=v1.2.3)")

	stdout, err = run(t, "update", src.Path(), "--precise", head, "--home", home)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(rev="+head+")")

	stdout, err = run(t, "stats", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, stdout, "databases:  1")
	assert.Contains(t, stdout, "checkouts:  2")

	stdout, err = run(t, "prune", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Nothing to prune")

	stdout, err = run(t, "prune", "--max-size", "1B", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Pruned 2 checkout(s).")
	assert.Equal(t, 2, strings.Count(stdout, "removed"))
}

func TestUpdateCommand_Errors(t *testing.T) {
	_, err := run(t, "update")
	assert.Error(t, err)

	_, err = run(t, "update", "https://example.com/repo", "--tag", "a", "--rev", "b", "--home", t.TempDir())
	assert.Error(t, err)

	_, err = run(t, "update", "https://example.com/repo", "--log-level", "loud", "--home", t.TempDir())
	assert.Error(t, err)
}
