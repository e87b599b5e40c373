// Package signals translates raw OS signal delivery into a typed event
// stream. A single Bridge owns the process-wide signal handlers; its
// lifetime is bound to the interactive session, and Stop restores the
// previous handler state.
package signals

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnsupported is reported when the platform lacks a signal capability.
var ErrUnsupported = errors.New("signals: job-control signals not supported on this platform")

// Bridge subscribes to the platform's job-control signals and fans each
// translated event out to every registered consumer queue. It runs on its
// own goroutine so delivery never blocks on user input.
type Bridge struct {
	logger *zap.Logger

	raw  chan os.Signal
	stop chan struct{}
	done chan struct{}

	mu      sync.Mutex
	queues  []*Queue
	started bool
}

func New(logger *zap.Logger) *Bridge {
	return &Bridge{
		logger: logger,
		raw:    make(chan os.Signal, 8),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Supported reports whether the platform delivers the full job-control
// signal set. When false the bridge degrades to WindowChanged-only.
func (b *Bridge) Supported() bool { return jobControlSupported() }

// Subscribe registers a consumer queue. Must be called before Start.
func (b *Bridge) Subscribe(name string, size int) *Queue {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := newQueue(name, size)
	b.queues = append(b.queues, q)
	return q
}

// Start installs the signal handlers and begins translating.
func (b *Bridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	b.started = true
	signal.Notify(b.raw, platformSignals()...)
	go b.run()
	startResizePolling(b)
}

// Stop uninstalls the handlers, restoring the prior disposition of every
// subscribed signal, and waits for the translation goroutine to exit.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	b.mu.Unlock()

	signal.Stop(b.raw)
	close(b.stop)
	<-b.done
}

func (b *Bridge) run() {
	defer close(b.done)
	for {
		select {
		case sig := <-b.raw:
			batch := []os.Signal{sig}
			// Signals that arrived together get a deterministic order:
			// Suspend is applied before Interrupt within one batch.
		drain:
			for {
				select {
				case s := <-b.raw:
					batch = append(batch, s)
				default:
					break drain
				}
			}
			for _, s := range orderBatch(batch) {
				if kind, ok := translate(s); ok {
					b.deliver(Event{Kind: kind, At: time.Now()})
				}
			}
		case <-b.stop:
			return
		}
	}
}

// orderBatch moves suspend signals ahead of everything else that arrived
// in the same drain pass, preserving arrival order otherwise.
func orderBatch(batch []os.Signal) []os.Signal {
	if len(batch) < 2 {
		return batch
	}
	ordered := make([]os.Signal, 0, len(batch))
	for _, s := range batch {
		if kind, ok := translate(s); ok && kind == Suspend {
			ordered = append(ordered, s)
		}
	}
	for _, s := range batch {
		if kind, ok := translate(s); !ok || kind != Suspend {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// Inject delivers a synthetic event to every consumer, bypassing the OS.
// Used by resize polling and by tests that script signal arrival.
func (b *Bridge) Inject(ev Event) {
	b.deliver(ev)
}

func (b *Bridge) deliver(ev Event) {
	b.mu.Lock()
	queues := b.queues
	b.mu.Unlock()

	for _, q := range queues {
		q.push(ev)
	}
	if b.logger != nil {
		b.logger.Debug("signal event delivered", zap.Stringer("kind", ev.Kind))
	}
}
