package core

import (
	"context"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"

	"github.com/wrenshell/wren/internal/jobs"
)

type backgroundKey struct{}

// WithBackground marks the context so the exec handler registers the
// spawned process group as a background job instead of taking the
// terminal.
func WithBackground(ctx context.Context) context.Context {
	return context.WithValue(ctx, backgroundKey{}, true)
}

func isBackground(ctx context.Context) bool {
	v, _ := ctx.Value(backgroundKey{}).(bool)
	return v
}

// stoppedExitCode is what a shell reports for a job stopped by SIGTSTP
// (128 + 20).
const stoppedExitCode = 148

// NewJobExecHandler returns exec middleware that runs external commands
// in their own process groups under the job coordinator. When job
// control is unavailable the handler steps aside entirely.
func NewJobExecHandler(coord *jobs.Coordinator, logger *zap.Logger) func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if !coord.Supported() || len(args) == 0 {
				return next(ctx, args)
			}

			hc := interp.HandlerCtx(ctx)
			path, err := interp.LookPathDir(hc.Dir, hc.Env, args[0])
			if err != nil {
				// not found: the default handler owns the error report
				return next(ctx, args)
			}

			background := isBackground(ctx)
			cmd := exec.Cmd{
				Path:        path,
				Args:        args,
				Env:         execEnv(hc.Env),
				Dir:         hc.Dir,
				Stdin:       hc.Stdin,
				Stdout:      hc.Stdout,
				Stderr:      hc.Stderr,
				SysProcAttr: procAttr(!background, coord.TerminalFd()),
			}
			if err := cmd.Start(); err != nil {
				return err
			}

			// with Setpgid the child's pgid equals its pid
			pgid := cmd.Process.Pid
			command := strings.Join(args, " ")

			if background {
				job, err := coord.RegisterBackground(pgid, command)
				if err != nil {
					return err
				}
				_, err = coord.WaitBackground(ctx, job)
				return err
			}

			job, err := coord.RegisterForeground(pgid, command)
			if err != nil {
				logger.Warn("failed to register foreground job", zap.Error(err))
				// the process is already running; fall back to a plain wait
				// in the shell's group
				return waitPlain(&cmd)
			}

			state, err := coord.WaitForeground(ctx, job)
			if err != nil {
				return err
			}
			if state == jobs.Stopped {
				return interp.NewExitStatus(stoppedExitCode)
			}
			if code := job.ExitCode(); code != 0 {
				return interp.NewExitStatus(uint8(code))
			}
			return nil
		}
	}
}

func waitPlain(cmd *exec.Cmd) error {
	err := cmd.Wait()
	if exit, ok := err.(*exec.ExitError); ok {
		return interp.NewExitStatus(uint8(exit.ExitCode()))
	}
	return err
}

// execEnv flattens the handler environment for exec.Cmd, exported
// variables only.
func execEnv(env expand.Environ) []string {
	list := make([]string, 0, 64)
	env.Each(func(name string, vr expand.Variable) bool {
		if vr.Exported && vr.Kind == expand.String {
			list = append(list, name+"="+vr.Str)
		}
		return true
	})
	return list
}
