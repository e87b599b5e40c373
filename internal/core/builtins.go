package core

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/interp"

	"github.com/wrenshell/wren/internal/history"
	"github.com/wrenshell/wren/internal/jobs"
)

// NewJobsCommandHandler implements the jobs builtin: list every job the
// coordinator still tracks.
func NewJobsCommandHandler(coord *jobs.Coordinator) func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 || args[0] != "jobs" {
				return next(ctx, args)
			}
			hc := interp.HandlerCtx(ctx)
			if !coord.Supported() {
				fmt.Fprintln(hc.Stderr, "jobs: job control not available")
				return interp.NewExitStatus(1)
			}
			for _, job := range coord.Jobs() {
				fmt.Fprintf(hc.Stdout, "[%d]  %s\t%s\n", job.ID, job.State(), job.Command)
			}
			return nil
		}
	}
}

// NewFgCommandHandler implements fg: resume a stopped job in the
// foreground and wait for it.
func NewFgCommandHandler(coord *jobs.Coordinator) func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 || args[0] != "fg" {
				return next(ctx, args)
			}
			hc := interp.HandlerCtx(ctx)
			if !coord.Supported() {
				fmt.Fprintln(hc.Stderr, "fg: job control not available")
				return interp.NewExitStatus(1)
			}

			job, err := resolveJob(coord, args[1:])
			if err != nil {
				fmt.Fprintf(hc.Stderr, "fg: %v\n", err)
				return interp.NewExitStatus(1)
			}

			// bash echoes the command being resumed
			fmt.Fprintln(hc.Stdout, job.Command)

			state, err := coord.ResumeForeground(ctx, job.ID)
			if err != nil {
				fmt.Fprintf(hc.Stderr, "fg: %v\n", err)
				return interp.NewExitStatus(1)
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

// NewBgCommandHandler implements bg: continue a stopped job without
// giving it the terminal.
func NewBgCommandHandler(coord *jobs.Coordinator) func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 || args[0] != "bg" {
				return next(ctx, args)
			}
			hc := interp.HandlerCtx(ctx)
			if !coord.Supported() {
				fmt.Fprintln(hc.Stderr, "bg: job control not available")
				return interp.NewExitStatus(1)
			}

			job, err := resolveJob(coord, args[1:])
			if err != nil {
				fmt.Fprintf(hc.Stderr, "bg: %v\n", err)
				return interp.NewExitStatus(1)
			}
			if _, err := coord.ResumeBackground(job.ID); err != nil {
				fmt.Fprintf(hc.Stderr, "bg: %v\n", err)
				return interp.NewExitStatus(1)
			}
			fmt.Fprintf(hc.Stdout, "[%d]  %s &\n", job.ID, job.Command)
			return nil
		}
	}
}

// resolveJob picks the job named by a %n or n argument, defaulting to
// the most recent one.
func resolveJob(coord *jobs.Coordinator, args []string) (*jobs.Job, error) {
	if len(args) == 0 {
		job, ok := coord.Latest()
		if !ok {
			return nil, fmt.Errorf("no current job")
		}
		return job, nil
	}

	spec := strings.TrimPrefix(args[0], "%")
	id, err := strconv.Atoi(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid job spec %q", args[0])
	}
	for _, job := range coord.Jobs() {
		if job.ID == id {
			return job, nil
		}
	}
	return nil, fmt.Errorf("no such job %d", id)
}

// NewHistoryCommandHandler implements the history builtin over the
// session's file store. With -d the listing is scoped to commands that
// ran in the current directory, served by the search index.
func NewHistoryCommandHandler(store *history.FileStore, index *history.Index) func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 || args[0] != "history" {
				return next(ctx, args)
			}
			hc := interp.HandlerCtx(ctx)

			rest := args[1:]
			dirScoped := false
			if len(rest) > 0 && rest[0] == "-d" {
				dirScoped = true
				rest = rest[1:]
			}

			limit := 0
			if len(rest) > 0 {
				n, err := strconv.Atoi(rest[0])
				if err != nil || n < 0 {
					fmt.Fprintf(hc.Stderr, "history: invalid count %q\n", rest[0])
					return interp.NewExitStatus(1)
				}
				limit = n
			}

			if dirScoped {
				return writeDirectoryHistory(index, hc.Dir, limit, hc.Stdout, hc.Stderr)
			}

			entries := store.Entries()
			if limit > 0 && limit < len(entries) {
				entries = entries[len(entries)-limit:]
			}
			for _, entry := range entries {
				fmt.Fprintf(hc.Stdout, "%5d  %s\n", entry.Seq, entry.Command)
			}
			return nil
		}
	}
}

// writeDirectoryHistory lists indexed commands recorded in dir, oldest
// first to match the plain listing.
func writeDirectoryHistory(index *history.Index, dir string, limit int, out, errOut io.Writer) error {
	if index == nil {
		fmt.Fprintln(errOut, "history: the search index is not available this session")
		return interp.NewExitStatus(1)
	}
	entries, err := index.Recent(dir, limit)
	if err != nil {
		fmt.Fprintf(errOut, "history: %v\n", err)
		return interp.NewExitStatus(1)
	}
	// Recent returns newest first
	for i := len(entries) - 1; i >= 0; i-- {
		fmt.Fprintf(out, "%5d  %s\n", entries[i].ID, entries[i].Command)
	}
	return nil
}
