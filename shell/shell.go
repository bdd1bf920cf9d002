// Package shell reports user-facing progress, one status line per event:
//
//	Updating git repository `https://github.com/org/repo`
//	Blocking waiting for file lock on package cache
//
// The verb is right-aligned to a fixed width and highlighted when the output
// is a terminal. Status output is informational only; diagnostics go through
// logrus.
package shell

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const verbWidth = 12

// Verbosity controls which messages are printed.
type Verbosity int

const (
	// Normal prints status lines.
	Normal Verbosity = iota
	// Quiet suppresses status lines.
	Quiet
)

// Shell writes status lines to an output stream. It is safe for concurrent use.
type Shell struct {
	mu        sync.Mutex
	out       io.Writer
	verb      *color.Color
	verbosity Verbosity
}

// Option configures a Shell.
type Option func(*Shell)

// WithColor forces colored verbs on or off regardless of the output.
func WithColor(enabled bool) Option {
	return func(s *Shell) {
		if enabled {
			s.verb.EnableColor()
		} else {
			s.verb.DisableColor()
		}
	}
}

// WithVerbosity sets the verbosity.
func WithVerbosity(v Verbosity) Option {
	return func(s *Shell) {
		s.verbosity = v
	}
}

// New returns a Shell writing to out. Color is enabled when out is a terminal.
func New(out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		out:  out,
		verb: color.New(color.FgGreen, color.Bold),
	}
	if isTerminal(out) {
		s.verb.EnableColor()
	} else {
		s.verb.DisableColor()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Default returns a Shell writing to stderr.
func Default() *Shell {
	return New(os.Stderr)
}

// Discard returns a Shell that prints nothing.
func Discard() *Shell {
	return New(io.Discard, WithVerbosity(Quiet))
}

// Status prints message prefixed by verb.
func (s *Shell) Status(verb, message string) error {
	if s == nil || s.verbosity == Quiet {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprintf(s.out, "%s %s\n", s.verb.Sprintf("%*s", verbWidth, verb), message)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
