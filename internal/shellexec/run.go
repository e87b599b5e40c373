// Package shellexec holds the thin helpers for parsing and running shell
// source through the interpreter.
package shellexec

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// RunReader parses and runs shell source from r under the given name.
func RunReader(ctx context.Context, runner *interp.Runner, r io.Reader, name string) error {
	file, err := syntax.NewParser().Parse(r, name)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return runner.Run(ctx, file)
}

// RunFile runs a script from disk.
func RunFile(ctx context.Context, runner *interp.Runner, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return RunReader(ctx, runner, f, path)
}

// RunCommand runs a single command string.
func RunCommand(ctx context.Context, runner *interp.Runner, command string) error {
	return RunReader(ctx, runner, strings.NewReader(command), "wren")
}

// NeedsContinuation classifies raw line text: true means the parser wants
// more input before the source forms a complete command, which drives the
// continuation prompt.
func NeedsContinuation(src string) bool {
	_, err := syntax.NewParser().Parse(strings.NewReader(src), "wren")
	return err != nil && syntax.IsIncomplete(err)
}
