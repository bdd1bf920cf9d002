// Package exec runs external commands with captured output.
//
// It exists so the git package can fetch with the system git binary when
// configured to do so:
//
//	git := exec.NewWrapper(exec.New(exec.WithInheritEnv()), "git")
//	_, err := git.WithContext(ctx).WithDir(dbPath).Run("fetch", "--tags", "origin")
package exec

import (
	"context"
)

// Executor is the main interface for executing commands.
// Settings applied through the With* methods are local to the next Run.
type Executor interface {
	// WithEnv sets environment variables for the command.
	WithEnv(env map[string]string) Executor

	// WithDir sets the working directory for the command.
	WithDir(dir string) Executor

	// WithContext sets the context for the command.
	// The command is killed if the context is canceled.
	WithContext(ctx context.Context) Executor

	// Run executes the command with the given arguments.
	Run(args ...string) (*Result, error)

	// Clone creates a copy of the executor with the same configuration.
	Clone() Executor
}

// Result represents the result of a command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Option is a function that configures a Command with global settings.
type Option func(*Command)

// WithEnv returns an Option that sets global environment variables.
func WithEnv(env map[string]string) Option {
	return func(c *Command) {
		for k, v := range env {
			c.globalEnv[k] = v
		}
	}
}

// WithDir returns an Option that sets the global working directory.
func WithDir(dir string) Option {
	return func(c *Command) {
		c.globalDir = dir
	}
}

// WithInheritEnv returns an Option that inherits the parent process environment.
func WithInheritEnv() Option {
	return func(c *Command) {
		c.inheritEnv = true
	}
}
