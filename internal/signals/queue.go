package signals

import "context"

// Queue is a bounded per-consumer event queue. WindowChanged events are
// coalescible: the queue holds at most one at a time and silently drops
// the rest. All other kinds are never dropped; when the queue is full the
// delivering goroutine blocks until the consumer catches up.
type Queue struct {
	name   string
	events chan Event
	resize chan Event
}

func newQueue(name string, size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{
		name:   name,
		events: make(chan Event, size),
		resize: make(chan Event, 1),
	}
}

// Name returns the consumer name the queue was registered under.
func (q *Queue) Name() string { return q.name }

// Events exposes the lossless event stream for use in select loops.
func (q *Queue) Events() <-chan Event { return q.events }

// Resize exposes the coalesced WindowChanged stream.
func (q *Queue) Resize() <-chan Event { return q.resize }

// Next blocks for the next event from either stream.
func (q *Queue) Next(ctx context.Context) (Event, bool) {
	select {
	case ev := <-q.events:
		return ev, true
	case ev := <-q.resize:
		return ev, true
	case <-ctx.Done():
		return Event{}, false
	}
}

// TryNext returns a queued event without blocking.
func (q *Queue) TryNext() (Event, bool) {
	select {
	case ev := <-q.events:
		return ev, true
	default:
	}
	select {
	case ev := <-q.resize:
		return ev, true
	default:
		return Event{}, false
	}
}

// Drain discards every queued event and reports how many were dropped.
// Used by line sources to shed events that went stale while a foreground
// job owned the terminal.
func (q *Queue) Drain() int {
	n := 0
	for {
		if _, ok := q.TryNext(); !ok {
			return n
		}
		n++
	}
}

func (q *Queue) push(ev Event) {
	if ev.Kind == WindowChanged {
		select {
		case q.resize <- ev:
		default:
			// one resize is already pending; later ones add nothing
		}
		return
	}
	q.events <- ev
}
