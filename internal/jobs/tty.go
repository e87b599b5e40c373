package jobs

// Tty abstracts the controlling terminal and the process-group calls the
// coordinator needs. The production implementation is per-platform; tests
// substitute a fake so ownership transitions are observable.
type Tty interface {
	// ShellGroup returns the shell's own process group.
	ShellGroup() int
	// Foreground returns the terminal's current owning process group.
	Foreground() (int, error)
	// SetForeground hands terminal ownership to pgid.
	SetForeground(pgid int) error
	// Fd returns the terminal's file descriptor, for spawn-time handoff
	// via the child's process attributes. Negative when unavailable.
	Fd() int
	// Interrupt, Suspend and Continue signal the whole process group.
	Interrupt(pgid int) error
	Suspend(pgid int) error
	Continue(pgid int) error
	// Wait blocks until the group leader's next state change.
	Wait(pgid int) (WaitUpdate, error)
	Close() error
}

// WaitUpdate describes one observed child state change.
type WaitUpdate struct {
	Pid       int
	Stopped   bool
	Continued bool
	Exited    bool
	ExitCode  int
}
