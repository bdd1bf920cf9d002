package core

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summary(t *testing.T, name, version string) Summary {
	t.Helper()
	src, err := NewGitSourceID("https://github.com/org/repo", nil)
	require.NoError(t, err)
	return Summary{ID: PackageID{Name: name, Version: semver.MustParse(version), Source: src}}
}

func TestDependency_Matches(t *testing.T) {
	dep, err := NewDependency("widget", "^1.2")
	require.NoError(t, err)

	assert.True(t, dep.Matches(summary(t, "widget", "1.4.0")))
	assert.False(t, dep.Matches(summary(t, "widget", "2.0.0")))
	assert.False(t, dep.Matches(summary(t, "gadget", "1.4.0")))
}

func TestNewDependency_EmptyRequirementMatchesAll(t *testing.T) {
	dep, err := NewDependency("widget", "")
	require.NoError(t, err)

	assert.True(t, dep.Matches(summary(t, "widget", "0.0.1")))
	assert.True(t, dep.Matches(summary(t, "widget", "9.9.9")))
}

func TestNewDependency_Invalid(t *testing.T) {
	_, err := NewDependency("widget", ">>> nope")
	assert.Error(t, err)
}

func TestPackageID_Equal(t *testing.T) {
	a := summary(t, "widget", "1.0.0").ID
	b := summary(t, "widget", "1.0.0").ID
	c := summary(t, "widget", "1.0.1").ID

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Contains(t, a.String(), "widget v1.0.0")
}
