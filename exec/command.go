package exec

import (
	"bytes"
	"context"
	"os"
	osexec "os/exec"
)

// Command is the concrete implementation of the Executor interface.
type Command struct {
	ctx        context.Context
	globalEnv  map[string]string
	globalDir  string
	inheritEnv bool

	localEnv map[string]string
	localDir string
}

// New creates a new Command with the given options.
func New(opts ...Option) *Command {
	cmd := &Command{
		ctx:       context.Background(),
		globalEnv: make(map[string]string),
		localEnv:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(cmd)
	}
	return cmd
}

// WithEnv sets environment variables for the next run.
func (c *Command) WithEnv(env map[string]string) Executor {
	for k, v := range env {
		c.localEnv[k] = v
	}
	return c
}

// WithDir sets the working directory for the next run.
func (c *Command) WithDir(dir string) Executor {
	c.localDir = dir
	return c
}

// WithContext sets the context for the command.
func (c *Command) WithContext(ctx context.Context) Executor {
	c.ctx = ctx
	return c
}

// Run executes the command with the given arguments.
func (c *Command) Run(args ...string) (*Result, error) {
	defer c.resetLocal()

	if len(args) == 0 {
		return nil, &ExecError{Command: args, ExitCode: -1, Err: osexec.ErrNotFound}
	}

	cmd := osexec.CommandContext(c.ctx, args[0], args[1:]...)
	cmd.Dir = c.globalDir
	if c.localDir != "" {
		cmd.Dir = c.localDir
	}

	if c.inheritEnv {
		cmd.Env = os.Environ()
	}
	for k, v := range c.globalEnv {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	for k, v := range c.localEnv {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}
	if err != nil {
		return result, &ExecError{
			Command:  args,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}

	return result, nil
}

// Clone creates a copy of the executor with the same global configuration.
func (c *Command) Clone() Executor {
	clone := New()
	clone.ctx = c.ctx
	clone.globalDir = c.globalDir
	clone.inheritEnv = c.inheritEnv
	for k, v := range c.globalEnv {
		clone.globalEnv[k] = v
	}
	return clone
}

func (c *Command) resetLocal() {
	c.localEnv = make(map[string]string)
	c.localDir = ""
}
