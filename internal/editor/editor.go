// Package editor reads command lines from the user. Two implementations
// exist: Minimal wraps a plain byte stream for dumb terminals and pipes,
// Rich runs a full-screen-less bubbletea line editor with history,
// completion, and reverse search.
package editor

import (
	"context"
	"errors"
)

// ErrCancelled is returned when the user abandons the line in progress
// (Ctrl+C at the prompt). The session shows a fresh prompt.
var ErrCancelled = errors.New("line cancelled")

// ErrEndOfInput is returned when input is exhausted (Ctrl+D on an empty
// line, or EOF on the byte stream). The session shuts down.
var ErrEndOfInput = errors.New("end of input")

// LineSource produces one command line per call.
type LineSource interface {
	// ReadLine blocks until a full line is available, the user cancels,
	// input ends, or ctx is done.
	ReadLine(ctx context.Context, prompt string) (string, error)
	Close() error
}
