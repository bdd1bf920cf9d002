package shell

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	var buf bytes.Buffer
	sh := New(&buf)

	require.NoError(t, sh.Status("Updating", "git repository `https://github.com/org/repo`"))
	assert.Equal(t, "    Updating git repository `https://github.com/org/repo`\n", buf.String())
}

func TestStatus_LongVerb(t *testing.T) {
	var buf bytes.Buffer
	sh := New(&buf)

	require.NoError(t, sh.Status("Downloading!!", "x"))
	assert.Equal(t, "Downloading!! x\n", buf.String())
}

func TestStatus_Quiet(t *testing.T) {
	var buf bytes.Buffer
	sh := New(&buf, WithVerbosity(Quiet))

	require.NoError(t, sh.Status("Updating", "anything"))
	assert.Empty(t, buf.String())
}

func TestStatus_Color(t *testing.T) {
	var buf bytes.Buffer
	sh := New(&buf, WithColor(true))

	require.NoError(t, sh.Status("Blocking", "waiting for file lock"))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "waiting for file lock")
}

func TestStatus_NilShell(t *testing.T) {
	var sh *Shell
	assert.NoError(t, sh.Status("Updating", "ignored"))
}
