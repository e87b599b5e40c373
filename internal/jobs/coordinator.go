// Package jobs owns terminal process-group ownership and job state
// transitions. All mutation of the controlling terminal's foreground
// group is confined to the Coordinator; every other component observes
// outcomes through notifications.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wrenshell/wren/internal/signals"
	"go.uber.org/zap"
)

// Notification is a job-state change surfaced before the next prompt.
type Notification struct {
	Job   *Job
	State State
}

func (n Notification) String() string {
	return fmt.Sprintf("[%d]  %s\t%s", n.Job.ID, n.State, n.Job.Command)
}

// Coordinator tracks registered jobs and arbitrates terminal ownership.
// At any time the terminal belongs either to the shell's own group or to
// exactly one foreground job's group.
type Coordinator struct {
	tty    Tty
	queue  *signals.Queue
	logger *zap.Logger

	mu         sync.Mutex
	jobs       map[int]*Job
	nextID     int
	foreground *Job
	pending    []Notification
}

func NewCoordinator(tty Tty, queue *signals.Queue, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		tty:    tty,
		queue:  queue,
		logger: logger,
		jobs:   make(map[int]*Job),
		nextID: 1,
	}
}

// Supported reports whether job control is available this session.
func (c *Coordinator) Supported() bool { return c != nil && c.tty != nil }

// TerminalFd returns the controlling terminal's file descriptor so a
// foreground spawn can take ownership in the kernel, before exec.
// Negative when job control is unavailable.
func (c *Coordinator) TerminalFd() int {
	if !c.Supported() {
		return -1
	}
	return c.tty.Fd()
}

// RegisterForeground records a spawned process group as the foreground
// job and asserts its terminal ownership. A foreground spawn already owns
// the terminal through its process attributes (TerminalFd); the assertion
// keeps registration atomic with respect to the job table: on failure the
// job is not registered.
func (c *Coordinator) RegisterForeground(pgid int, command string) (*Job, error) {
	if !c.Supported() {
		return nil, ErrUnsupported
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.foreground != nil {
		return nil, &ControlError{Op: "register", Err: fmt.Errorf("foreground job %d already exists", c.foreground.ID)}
	}
	c.shedStaleEvents()
	if err := c.tty.SetForeground(pgid); err != nil {
		return nil, err
	}

	job := newJob(c.nextID, pgid, command, true)
	c.nextID++
	c.jobs[job.ID] = job
	c.foreground = job
	go c.reap(job)

	c.logger.Debug("foreground job registered",
		zap.Int("job", job.ID), zap.Int("pgid", pgid), zap.String("command", command))
	return job, nil
}

// RegisterBackground records a spawned process group without touching
// terminal ownership.
func (c *Coordinator) RegisterBackground(pgid int, command string) (*Job, error) {
	if !c.Supported() {
		return nil, ErrUnsupported
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	job := newJob(c.nextID, pgid, command, false)
	c.nextID++
	c.jobs[job.ID] = job
	go c.reap(job)

	c.logger.Debug("background job registered",
		zap.Int("job", job.ID), zap.Int("pgid", pgid), zap.String("command", command))
	return job, nil
}

// reap is the single waiter for a job's process group. It translates wait
// status changes into job state transitions until the job is Done.
func (c *Coordinator) reap(job *Job) {
	for {
		update, err := c.tty.Wait(job.Pgid)
		if err != nil {
			// The group is gone (or waiting is broken); don't leave the
			// job undead in the table.
			job.setState(Done, 128)
			return
		}
		switch {
		case update.Exited:
			job.setState(Done, update.ExitCode)
			return
		case update.Stopped:
			job.setState(Stopped, 0)
		case update.Continued:
			job.setState(Running, 0)
		}
	}
}

// WaitForeground blocks until the foreground job stops or finishes,
// forwarding Interrupt and Suspend events to the job's group in arrival
// order. Terminal ownership is restored to the shell on every exit path,
// including errors and cancellation.
func (c *Coordinator) WaitForeground(ctx context.Context, job *Job) (State, error) {
	defer c.reclaimTerminal()

	for {
		switch job.State() {
		case Done:
			c.finishForeground(job, Done)
			return Done, nil
		case Stopped:
			c.finishForeground(job, Stopped)
			return Stopped, nil
		}

		select {
		case <-job.Changed():
		case ev := <-c.queue.Events():
			c.forward(job, ev)
		case <-c.queue.Resize():
			// resize is the editor's concern
		case <-ctx.Done():
			c.finishForeground(job, job.State())
			return job.State(), ctx.Err()
		}
	}
}

// WaitBackground blocks until the job is Done. Stopped background jobs
// stay registered and keep their waiter until resumed and finished.
func (c *Coordinator) WaitBackground(ctx context.Context, job *Job) (State, error) {
	for {
		if job.State() == Done {
			return Done, nil
		}
		select {
		case <-job.Changed():
		case <-ctx.Done():
			return job.State(), ctx.Err()
		}
	}
}

func (c *Coordinator) forward(job *Job, ev signals.Event) {
	var err error
	switch ev.Kind {
	case signals.Interrupt:
		// forwarded to the job's group; the shell's ownership is untouched
		err = c.tty.Interrupt(job.Pgid)
	case signals.Suspend:
		err = c.tty.Suspend(job.Pgid)
	case signals.Resume, signals.ChildStatusChanged:
		// the reaper observes the resulting state change
	}
	if err != nil {
		c.logger.Warn("signal forwarding failed",
			zap.Stringer("kind", ev.Kind), zap.Int("job", job.ID), zap.Error(err))
	}
}

// finishForeground demotes the foreground job after it stopped or finished
// and queues the user-visible notification for the next prompt.
func (c *Coordinator) finishForeground(job *Job, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.foreground == job {
		c.foreground = nil
	}
	job.setForeground(false)
	switch state {
	case Stopped:
		c.pending = append(c.pending, Notification{Job: job, State: Stopped})
	case Done:
		// a job that finished in the foreground is reaped silently
		delete(c.jobs, job.ID)
	}
}

// shedStaleEvents discards queued signal events that predate the job
// taking the foreground. They were aimed at the prompt, where the editor
// already handled them; replaying them into the next job would interrupt
// or stop a command the user never signalled.
func (c *Coordinator) shedStaleEvents() {
	if c.queue == nil {
		return
	}
	if n := c.queue.Drain(); n > 0 {
		c.logger.Debug("dropped stale signal events", zap.Int("count", n))
	}
}

// reclaimTerminal unconditionally restores ownership to the shell's own
// group. Skipping this on any path freezes subsequent interactive input.
func (c *Coordinator) reclaimTerminal() {
	if err := c.tty.SetForeground(c.tty.ShellGroup()); err != nil {
		c.logger.Error("failed to reclaim terminal ownership", zap.Error(err))
	}
}

// ResumeForeground continues a job in the foreground: ownership transfers
// to the job's group before it runs, and the call does not return until
// the job is Done or stopped again.
func (c *Coordinator) ResumeForeground(ctx context.Context, id int) (State, error) {
	if !c.Supported() {
		return Done, ErrUnsupported
	}
	job, err := c.lookup(id)
	if err != nil {
		return Done, err
	}

	c.mu.Lock()
	if c.foreground != nil {
		c.mu.Unlock()
		return Done, &ControlError{Op: "fg", Err: fmt.Errorf("foreground job %d already exists", c.foreground.ID)}
	}
	c.shedStaleEvents()
	// Ownership first, then continue: the job must never run in the
	// foreground without owning the terminal.
	if err := c.tty.SetForeground(job.Pgid); err != nil {
		c.mu.Unlock()
		return job.State(), err
	}
	c.foreground = job
	job.setForeground(true)
	c.mu.Unlock()

	if err := c.tty.Continue(job.Pgid); err != nil {
		c.mu.Lock()
		c.foreground = nil
		job.setForeground(false)
		c.mu.Unlock()
		c.reclaimTerminal()
		return job.State(), err
	}
	job.setState(Running, 0)

	return c.WaitForeground(ctx, job)
}

// ResumeBackground continues a stopped job without terminal ownership.
func (c *Coordinator) ResumeBackground(id int) (*Job, error) {
	if !c.Supported() {
		return nil, ErrUnsupported
	}
	job, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := c.tty.Continue(job.Pgid); err != nil {
		return nil, err
	}
	job.setState(Running, 0)
	return job, nil
}

// ForegroundJob returns the current foreground job, or nil.
func (c *Coordinator) ForegroundJob() *Job {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.foreground
}

// Jobs returns the background table ordered by job id.
func (c *Coordinator) Jobs() []*Job {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Job, 0, len(c.jobs))
	for _, job := range c.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Latest returns the most recently registered job still in the table.
func (c *Coordinator) Latest() (*Job, bool) {
	jobs := c.Jobs()
	if len(jobs) == 0 {
		return nil, false
	}
	return jobs[len(jobs)-1], true
}

// Notifications drains the pending job-state notifications and reaps Done
// jobs out of the table. Called before each prompt.
func (c *Coordinator) Notifications() []Notification {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.pending
	c.pending = nil
	for id, job := range c.jobs {
		if job.State() == Done && job != c.foreground {
			out = append(out, Notification{Job: job, State: Done})
			delete(c.jobs, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job.ID < out[j].Job.ID })
	return out
}

func (c *Coordinator) lookup(id int) (*Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[id]
	if !ok {
		return nil, &ControlError{Op: "lookup", Err: fmt.Errorf("no such job %d", id)}
	}
	return job, nil
}

// Release returns terminal ownership to the shell and closes the terminal
// handle. Called once at session teardown.
func (c *Coordinator) Release() error {
	if !c.Supported() {
		return nil
	}
	c.reclaimTerminal()
	return c.tty.Close()
}
