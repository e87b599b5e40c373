package jobs

import (
	"errors"
	"fmt"
)

// ErrNoTerminal is reported when no controlling terminal is available and
// job control therefore cannot be attempted.
var ErrNoTerminal = errors.New("jobs: no controlling terminal")

// ErrUnsupported is reported on platforms without process groups.
var ErrUnsupported = errors.New("jobs: job control not supported on this platform")

// ControlError wraps a failed process-group or terminal-control operation.
// A ControlError during a foreground/background transition is fatal to
// that transition only; ownership stays in its last known-good state.
type ControlError struct {
	Op  string
	Err error
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("job control: %s: %v", e.Op, e.Err)
}

func (e *ControlError) Unwrap() error { return e.Err }
