// Package lock provides the cross-process lock guarding a cache directory.
//
// A Lock is an exclusive advisory file lock. Acquire first tries once without
// waiting; if another process holds the lock it reports a "Blocking" status
// and polls until the lock is free or the context is done.
//
//	l, err := lock.Acquire(ctx, filepath.Join(home, "git", ".package-cache"))
//	if err != nil {
//	    return err
//	}
//	defer l.Unlock()
//	root := l.Parent()
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/danjacques/gofslock/fslock"
	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/shell"
	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is how often a blocked Acquire retries.
const DefaultPollInterval = 100 * time.Millisecond

// Lock is a held cross-process lock. Unlock is safe to call more than once.
type Lock struct {
	path   string
	handle fslock.Handle

	once sync.Once
	err  error
}

// Option configures Acquire.
type Option func(*options)

type options struct {
	shell        *shell.Shell
	logger       logrus.FieldLogger
	pollInterval time.Duration
	description  string
}

// WithShell sets where the "Blocking" status is reported.
func WithShell(sh *shell.Shell) Option {
	return func(o *options) {
		o.shell = sh
	}
}

// WithLogger sets the logger for lock diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPollInterval sets how often a blocked Acquire retries.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithDescription names the locked resource in status messages.
func WithDescription(desc string) Option {
	return func(o *options) {
		o.description = desc
	}
}

// Acquire takes an exclusive lock on path, creating the file and its parent
// directory if needed. It blocks while another process holds the lock.
//
// Failures, including cancellation while waiting, carry CodeLockUnavailable.
func Acquire(ctx context.Context, path string, opts ...Option) (*Lock, error) {
	o := &options{
		shell:        shell.Discard(),
		logger:       logrus.StandardLogger(),
		pollInterval: DefaultPollInterval,
		description:  filepath.Base(path),
	}
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger.WithField("path", path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.CodeLockUnavailable, "failed to create lock directory for %s", path)
	}

	h, err := fslock.Lock(path)
	switch err {
	case nil:
		log.Debug("acquired lock")
		return &Lock{path: path, handle: h}, nil
	case fslock.ErrLockHeld:
	default:
		return nil, errors.Wrapf(err, errors.CodeLockUnavailable, "failed to lock %s", path)
	}

	if err := o.shell.Status("Blocking", fmt.Sprintf("waiting for file lock on %s", o.description)); err != nil {
		log.WithError(err).Debug("failed to report lock status")
	}

	h, err = fslock.LockBlocking(path, blocker(ctx, log, o.pollInterval))
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeLockUnavailable, "failed to lock %s", path)
	}

	log.Debug("acquired lock after waiting")
	return &Lock{path: path, handle: h}, nil
}

// blocker sleeps between lock attempts and gives up once ctx is done.
func blocker(ctx context.Context, log logrus.FieldLogger, interval time.Duration) fslock.Blocker {
	return func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Debugf("lock is currently held, retrying in %v", interval)

		t := time.NewTimer(interval)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Parent returns the directory containing the lock file, which is the root
// of the guarded tree.
func (l *Lock) Parent() string {
	return filepath.Dir(l.path)
}

// Unlock releases the lock. Calls after the first return the first result.
func (l *Lock) Unlock() error {
	l.once.Do(func() {
		if err := l.handle.Unlock(); err != nil {
			l.err = errors.Wrapf(err, errors.CodeInternal, "failed to unlock %s", l.path)
		}
	})
	return l.err
}
