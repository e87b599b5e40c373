//go:build !windows

package jobs

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

const ttyPath = "/dev/tty"

// OpenTty opens the controlling terminal. Callers treat ErrNoTerminal as a
// downgrade to job-control-unsupported, not a fatal condition.
func OpenTty() (Tty, error) {
	f, err := os.OpenFile(ttyPath, os.O_RDWR, 0)
	if err != nil {
		return nil, ErrNoTerminal
	}
	return &unixTty{f: f, shellPgid: unix.Getpgrp()}, nil
}

type unixTty struct {
	f         *os.File
	shellPgid int
}

func (t *unixTty) ShellGroup() int { return t.shellPgid }

func (t *unixTty) Fd() int { return int(t.f.Fd()) }

func (t *unixTty) Foreground() (int, error) {
	pgid, err := unix.IoctlGetInt(int(t.f.Fd()), unix.TIOCGPGRP)
	if err != nil {
		return 0, &ControlError{Op: "tcgetpgrp", Err: err}
	}
	return pgid, nil
}

func (t *unixTty) SetForeground(pgid int) error {
	// tcsetpgrp from a non-owning group raises SIGTTOU, which would stop
	// the shell mid-handoff and strand the terminal. Ignore it for the
	// duration of the ioctl.
	signal.Ignore(syscall.SIGTTOU, syscall.SIGTTIN)
	defer signal.Reset(syscall.SIGTTOU, syscall.SIGTTIN)

	if err := unix.IoctlSetPointerInt(int(t.f.Fd()), unix.TIOCSPGRP, pgid); err != nil {
		return &ControlError{Op: "tcsetpgrp", Err: err}
	}
	return nil
}

func (t *unixTty) Interrupt(pgid int) error { return t.kill(pgid, unix.SIGINT) }
func (t *unixTty) Suspend(pgid int) error   { return t.kill(pgid, unix.SIGTSTP) }
func (t *unixTty) Continue(pgid int) error  { return t.kill(pgid, unix.SIGCONT) }

func (t *unixTty) kill(pgid int, sig unix.Signal) error {
	if err := unix.Kill(-pgid, sig); err != nil {
		return &ControlError{Op: "kill " + unix.SignalName(sig), Err: err}
	}
	return nil
}

func (t *unixTty) Wait(pgid int) (WaitUpdate, error) {
	var ws unix.WaitStatus
	for {
		pid, err := unix.Wait4(-pgid, &ws, unix.WUNTRACED|unix.WCONTINUED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return WaitUpdate{}, &ControlError{Op: "wait4", Err: err}
		}

		update := WaitUpdate{Pid: pid}
		switch {
		case ws.Exited():
			update.Exited = true
			update.ExitCode = ws.ExitStatus()
		case ws.Signaled():
			update.Exited = true
			update.ExitCode = 128 + int(ws.Signal())
		case ws.Stopped():
			update.Stopped = true
		case ws.Continued():
			update.Continued = true
		default:
			continue
		}
		return update, nil
	}
}

func (t *unixTty) Close() error { return t.f.Close() }
