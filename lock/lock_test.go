package lock

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/shell"
)

func TestAcquire(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "git", ".package-cache")

	l, err := Acquire(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, l.Path())
	assert.Equal(t, filepath.Join(dir, "git"), l.Parent())

	require.NoError(t, l.Unlock())
	require.NoError(t, l.Unlock(), "unlock is idempotent")
}

func TestAcquire_CanceledWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".package-cache")

	held, err := Acquire(context.Background(), path)
	require.NoError(t, err)
	defer held.Unlock()

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_, err = Acquire(ctx, path,
		WithShell(shell.New(&out)),
		WithPollInterval(10*time.Millisecond),
		WithDescription("package cache"),
	)
	require.Error(t, err)
	assert.Equal(t, errors.CodeLockUnavailable, errors.GetCode(err))
	assert.True(t, errors.IsRetryable(err))
	assert.Contains(t, out.String(), "Blocking waiting for file lock on package cache")
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".package-cache")

	held, err := Acquire(context.Background(), path)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = held.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l, err := Acquire(ctx, path, WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, l.Unlock())
}
