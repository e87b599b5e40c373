package history

import (
	"errors"
	"fmt"
)

var errCorruptRecord = errors.New("corrupt history record")

// PersistenceError wraps a failed history store operation. It never
// terminates the session; the store downgrades to in-memory-only instead.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("history: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("history: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
