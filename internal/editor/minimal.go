package editor

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/wrenshell/wren/internal/signals"
)

type readResult struct {
	text string
	err  error
}

// Minimal is the line source for non-interactive stdin and terminals too
// limited for the rich editor. It echoes nothing and draws nothing; the
// terminal's own line discipline handles editing.
type Minimal struct {
	out    io.Writer
	queue  *signals.Queue
	logger *zap.Logger

	lines   chan readResult
	pending *readResult
}

// NewMinimal starts reading from in immediately. Lines are handed over
// one at a time through ReadLine.
func NewMinimal(in io.Reader, out io.Writer, queue *signals.Queue, logger *zap.Logger) *Minimal {
	m := &Minimal{
		out:    out,
		queue:  queue,
		logger: logger,
		lines:  make(chan readResult),
	}
	go m.read(in)
	return m
}

func (m *Minimal) read(in io.Reader) {
	reader := bufio.NewReader(in)
	for {
		text, err := reader.ReadString('\n')
		m.lines <- readResult{text: text, err: err}
		if err != nil {
			return
		}
	}
}

func (m *Minimal) ReadLine(ctx context.Context, prompt string) (string, error) {
	// events that arrived between reads are stale; a resize or a signal
	// aimed at a finished command must not act on the new line
	if m.queue != nil {
		m.queue.Drain()
	}

	fmt.Fprint(m.out, prompt)

	if m.pending != nil {
		res := *m.pending
		m.pending = nil
		return m.finish(res)
	}

	for {
		if m.queue == nil {
			select {
			case res := <-m.lines:
				return m.finish(res)
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		select {
		case res := <-m.lines:
			return m.finish(res)
		case ev := <-m.queue.Events():
			switch ev.Kind {
			case signals.Interrupt:
				fmt.Fprintln(m.out, "^C")
				return "", ErrCancelled
			case signals.Resume:
				// the prompt was likely clobbered while stopped
				fmt.Fprint(m.out, prompt)
			default:
				m.logger.Debug("minimal editor ignoring signal", zap.Stringer("kind", ev.Kind))
			}
		case <-m.queue.Resize():
			// nothing to redraw in minimal mode
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// finish normalizes one raw read. Text arriving together with EOF is
// still a command; the EOF is reported on the next call.
func (m *Minimal) finish(res readResult) (string, error) {
	text := res.text
	if n := len(text); n > 0 && text[n-1] == '\n' {
		text = text[:n-1]
		if n := len(text); n > 0 && text[n-1] == '\r' {
			text = text[:n-1]
		}
	}

	if res.err == nil {
		return text, nil
	}
	if text != "" {
		m.pending = &readResult{err: res.err}
		return text, nil
	}
	if res.err == io.EOF {
		return "", ErrEndOfInput
	}
	return "", res.err
}

func (m *Minimal) Close() error { return nil }
