package jobs

import "sync"

// State is the lifecycle state of a job. Done is terminal; Running and
// Stopped may alternate.
type State int

const (
	Running State = iota
	Stopped
	Done
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Job tracks one spawned process group registered by the execution core.
type Job struct {
	ID      int
	Pgid    int
	Command string

	mu         sync.Mutex
	state      State
	foreground bool
	exitCode   int
	changed    chan struct{}
}

func newJob(id, pgid int, command string, foreground bool) *Job {
	return &Job{
		ID:         id,
		Pgid:       pgid,
		Command:    command,
		state:      Running,
		foreground: foreground,
		changed:    make(chan struct{}, 1),
	}
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) Foreground() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.foreground
}

func (j *Job) ExitCode() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.exitCode
}

// Changed signals (coalesced) whenever the job's state moves.
func (j *Job) Changed() <-chan struct{} { return j.changed }

func (j *Job) setState(state State, exitCode int) {
	j.mu.Lock()
	if j.state == Done {
		j.mu.Unlock()
		return
	}
	j.state = state
	if state == Done {
		j.exitCode = exitCode
	}
	j.mu.Unlock()

	select {
	case j.changed <- struct{}{}:
	default:
	}
}

func (j *Job) setForeground(fg bool) {
	j.mu.Lock()
	j.foreground = fg
	j.mu.Unlock()
}
