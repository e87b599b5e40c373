package editor

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wrenshell/wren/internal/signals"
)

func TestMinimalReadsLines(t *testing.T) {
	var out bytes.Buffer
	m := NewMinimal(strings.NewReader("echo one\necho two\n"), &out, nil, zap.NewNop())

	line, err := m.ReadLine(context.Background(), "$ ")
	require.NoError(t, err)
	assert.Equal(t, "echo one", line)

	line, err = m.ReadLine(context.Background(), "$ ")
	require.NoError(t, err)
	assert.Equal(t, "echo two", line)

	_, err = m.ReadLine(context.Background(), "$ ")
	assert.ErrorIs(t, err, ErrEndOfInput)

	assert.Equal(t, "$ $ $ ", out.String())
}

func TestMinimalStripsCarriageReturn(t *testing.T) {
	m := NewMinimal(strings.NewReader("dir\r\n"), io.Discard, nil, zap.NewNop())

	line, err := m.ReadLine(context.Background(), "$ ")
	require.NoError(t, err)
	assert.Equal(t, "dir", line)
}

func TestMinimalPartialLineBeforeEOF(t *testing.T) {
	m := NewMinimal(strings.NewReader("no trailing newline"), io.Discard, nil, zap.NewNop())

	line, err := m.ReadLine(context.Background(), "$ ")
	require.NoError(t, err)
	assert.Equal(t, "no trailing newline", line)

	_, err = m.ReadLine(context.Background(), "$ ")
	assert.ErrorIs(t, err, ErrEndOfInput)
}

func TestMinimalInterruptCancelsLine(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	bridge := signals.New(zap.NewNop())
	queue := bridge.Subscribe("editor", 8)

	var out bytes.Buffer
	m := NewMinimal(pr, &out, queue, zap.NewNop())

	type result struct {
		line string
		err  error
	}
	results := make(chan result, 1)
	go func() {
		line, err := m.ReadLine(context.Background(), "$ ")
		results <- result{line, err}
	}()

	// the first injections may land before ReadLine drains stale events,
	// so keep injecting until the read observes one
	deadline := time.After(5 * time.Second)
	for {
		select {
		case res := <-results:
			assert.ErrorIs(t, res.err, ErrCancelled)
			assert.Contains(t, out.String(), "^C")
			return
		case <-deadline:
			t.Fatal("ReadLine did not observe the interrupt")
		case <-time.After(10 * time.Millisecond):
			bridge.Inject(signals.Event{Kind: signals.Interrupt, At: time.Now()})
		}
	}
}

func TestMinimalContextCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	m := NewMinimal(pr, io.Discard, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := m.ReadLine(ctx, "$ ")
	assert.ErrorIs(t, err, context.Canceled)
}
