package signals

import "time"

// Kind identifies the class of a translated signal event.
type Kind int

const (
	Interrupt Kind = iota
	Suspend
	Resume
	WindowChanged
	ChildStatusChanged
)

func (k Kind) String() string {
	switch k {
	case Interrupt:
		return "interrupt"
	case Suspend:
		return "suspend"
	case Resume:
		return "resume"
	case WindowChanged:
		return "window-changed"
	case ChildStatusChanged:
		return "child-status-changed"
	default:
		return "unknown"
	}
}

// Event is an immutable, typed translation of one OS signal delivery.
type Event struct {
	Kind Kind
	At   time.Time
}
