// Package prompt expands user-configured prompt templates. Templates use
// shell word syntax, so parameter expansion and command substitution both
// work: `$PWD $(git branch --show-current)> `.
package prompt

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// fallback is printed when template expansion fails or times out. The
// session must always get some prompt back.
const fallback = "$ "

// Engine renders prompt templates against the live interpreter state.
type Engine struct {
	runner  *interp.Runner
	timeout time.Duration
	logger  *zap.Logger
}

func NewEngine(runner *interp.Runner, timeout time.Duration, logger *zap.Logger) *Engine {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &Engine{runner: runner, timeout: timeout, logger: logger}
}

// Render expands the template and returns the prompt text. Any parse,
// expansion, or timeout failure degrades to a static fallback so the read
// loop never stalls on a broken prompt.
func (e *Engine) Render(ctx context.Context, template string) string {
	if template == "" {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	word, err := syntax.NewParser().Document(strings.NewReader(template))
	if err != nil {
		e.logger.Warn("prompt template failed to parse", zap.Error(err))
		return fallback
	}

	cfg := &expand.Config{
		Env:      expand.FuncEnviron(e.lookup),
		CmdSubst: e.cmdSubst(ctx),
	}
	rendered, err := expand.Document(cfg, word)
	if err != nil {
		e.logger.Warn("prompt template failed to expand", zap.Error(err))
		return fallback
	}
	return rendered
}

func (e *Engine) lookup(name string) string {
	if e.runner != nil {
		if v, ok := e.runner.Vars[name]; ok && v.IsSet() {
			return v.String()
		}
		if name == "PWD" && e.runner.Dir != "" {
			return e.runner.Dir
		}
	}
	return os.Getenv(name)
}

// cmdSubst runs $(...) blocks in a throwaway interpreter so prompt
// commands cannot mutate session state. Output is captured; stderr is
// discarded.
func (e *Engine) cmdSubst(ctx context.Context) func(io.Writer, *syntax.CmdSubst) error {
	return func(w io.Writer, cs *syntax.CmdSubst) error {
		var buf bytes.Buffer
		opts := []interp.RunnerOption{
			interp.StdIO(nil, &buf, io.Discard),
			interp.Env(expand.FuncEnviron(e.lookup)),
		}
		if e.runner != nil && e.runner.Dir != "" {
			opts = append(opts, interp.Dir(e.runner.Dir))
		}
		sub, err := interp.New(opts...)
		if err != nil {
			return err
		}
		if err := sub.Run(ctx, &syntax.File{Stmts: cs.Stmts}); err != nil {
			return err
		}
		// strip the trailing newline the way $(...) does in command position
		_, err = w.Write(bytes.TrimRight(buf.Bytes(), "\n"))
		return err
	}
}
