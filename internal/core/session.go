package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/wrenshell/wren/internal/editor"
	"github.com/wrenshell/wren/internal/environment"
	"github.com/wrenshell/wren/internal/history"
	"github.com/wrenshell/wren/internal/jobs"
	"github.com/wrenshell/wren/internal/prompt"
	"github.com/wrenshell/wren/internal/shellexec"
	"github.com/wrenshell/wren/internal/styles"
)

// Session is one interactive shell session: the read-expand-execute loop
// plus everything it consults between commands.
type Session struct {
	Runner    *interp.Runner
	Editor    editor.LineSource
	History   *history.FileStore
	Index     *history.Index
	Jobs      *jobs.Coordinator
	Prompt    *prompt.Engine
	Logger    *zap.Logger
	SessionID string
	Stdout    io.Writer
	Stderr    io.Writer
}

// Run drives the session until input ends, the user exits, or an
// unrecoverable error occurs.
func (s *Session) Run(ctx context.Context) error {
	for {
		s.flushJobNotifications()

		promptText := s.Prompt.Render(ctx, environment.GetPromptTemplate(s.Runner))

		line, err := s.readCommand(ctx, promptText)
		switch {
		case errors.Is(err, editor.ErrCancelled):
			continue
		case errors.Is(err, editor.ErrEndOfInput):
			s.Logger.Info("input exhausted, session ending")
			return nil
		case err != nil:
			return err
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		if expanded, changed := expandHistory(line, s.History); changed {
			line = expanded
			// echo the expanded command the way bash does
			fmt.Fprintln(s.Stderr, line)
		}

		if rewritten, ok := TryAutocd(line, s.Runner); ok {
			line = rewritten
		}

		entry, _ := s.History.Append(line)
		indexEntry, err := s.Index.Start(line, environment.GetPwd(s.Runner), s.SessionID)
		if err != nil {
			s.Logger.Warn("history index unavailable", zap.Error(err))
		}

		exitCode, exited := s.execute(ctx, line)

		s.History.MarkExit(entry.Seq, exitCode)
		if err := s.Index.Finish(indexEntry, exitCode); err != nil {
			s.Logger.Warn("history index update failed", zap.Error(err))
		}

		if exited {
			s.Logger.Info("session exiting", zap.Int("exitCode", exitCode))
			if exitCode != 0 {
				return interp.NewExitStatus(uint8(exitCode))
			}
			return nil
		}
	}
}

// flushJobNotifications surfaces job state changes that accumulated
// while the previous command ran.
func (s *Session) flushJobNotifications() {
	for _, n := range s.Jobs.Notifications() {
		fmt.Fprintln(s.Stdout, styles.JOB_STATUS(n.String()))
	}
}

// readCommand reads one complete command, requesting continuation lines
// until the source parses or fails for a reason other than running out
// of input.
func (s *Session) readCommand(ctx context.Context, promptText string) (string, error) {
	line, err := s.Editor.ReadLine(ctx, promptText)
	if err != nil {
		return "", err
	}

	for shellexec.NeedsContinuation(line) {
		contPrompt := s.Prompt.Render(ctx, environment.GetContinuationTemplate(s.Runner))
		next, err := s.Editor.ReadLine(ctx, contPrompt)
		if err != nil {
			// cancelling a continuation discards the whole command
			return "", err
		}
		line = line + "\n" + next
	}
	return line, nil
}

// execute runs one command's statements, marking background statements
// so the exec handler registers them without taking the terminal.
func (s *Session) execute(ctx context.Context, input string) (exitCode int, exited bool) {
	file, err := syntax.NewParser().Parse(strings.NewReader(input), "wren")
	if err != nil {
		fmt.Fprintln(s.Stderr, styles.ERROR("wren: "+err.Error()))
		return 2, false
	}

	var lastErr error
	for _, stmt := range file.Stmts {
		runCtx := ctx
		if stmt.Background {
			runCtx = WithBackground(ctx)
		}
		lastErr = s.Runner.Run(runCtx, stmt)
		if s.Runner.Exited() {
			exited = true
			break
		}
	}

	exitCode = exitStatus(lastErr)
	if lastErr != nil && exitCode == generalFailureCode {
		if _, ok := interp.IsExitStatus(lastErr); !ok {
			s.Logger.Error("command failed", zap.Error(lastErr))
			fmt.Fprintln(s.Stderr, styles.ERROR("wren: "+lastErr.Error()))
		}
	}
	return exitCode, exited
}

const generalFailureCode = 1

func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	if status, ok := interp.IsExitStatus(err); ok {
		return int(status)
	}
	return generalFailureCode
}
