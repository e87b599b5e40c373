package core

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/interp"

	"github.com/wrenshell/wren/internal/editor"
	"github.com/wrenshell/wren/internal/history"
	"github.com/wrenshell/wren/internal/prompt"
)

type scriptedRead struct {
	line string
	err  error
}

// scriptedSource replays a fixed sequence of reads and records the
// prompts it was shown.
type scriptedSource struct {
	reads   []scriptedRead
	prompts []string
}

func (s *scriptedSource) ReadLine(_ context.Context, promptText string) (string, error) {
	s.prompts = append(s.prompts, promptText)
	if len(s.reads) == 0 {
		return "", editor.ErrEndOfInput
	}
	next := s.reads[0]
	s.reads = s.reads[1:]
	return next.line, next.err
}

func (s *scriptedSource) Close() error { return nil }

func lines(texts ...string) []scriptedRead {
	reads := make([]scriptedRead, len(texts))
	for i, text := range texts {
		reads[i] = scriptedRead{line: text}
	}
	return reads
}

func newTestSession(t *testing.T, source *scriptedSource) (*Session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	runner, err := interp.New(
		interp.Interactive(true),
		interp.StdIO(nil, &stdout, &stderr),
	)
	require.NoError(t, err)

	store := history.NewFileStore(filepath.Join(t.TempDir(), "history"), history.Options{Dedup: true}, zap.NewNop())
	t.Cleanup(func() { _ = store.Close() })

	session := &Session{
		Runner:    runner,
		Editor:    source,
		History:   store,
		Prompt:    prompt.NewEngine(runner, time.Second, zap.NewNop()),
		Logger:    zap.NewNop(),
		SessionID: "test-session",
		Stdout:    &stdout,
		Stderr:    &stderr,
	}
	return session, &stdout, &stderr
}

func TestSessionRunsCommands(t *testing.T) {
	source := &scriptedSource{reads: lines("echo hello", "exit")}
	session, stdout, _ := newTestSession(t, source)

	err := session.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "hello")
	assert.Equal(t, []string{"echo hello", "exit"}, session.History.Commands(0))
}

func TestSessionEndsOnInputExhaustion(t *testing.T) {
	source := &scriptedSource{reads: lines("echo done")}
	session, stdout, _ := newTestSession(t, source)

	err := session.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "done")
}

func TestSessionContinuationJoinsLines(t *testing.T) {
	source := &scriptedSource{reads: lines(
		"for f in a b; do",
		`echo "$f"`,
		"done",
	)}
	session, stdout, _ := newTestSession(t, source)

	err := session.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "a\nb\n")

	commands := session.History.Commands(0)
	require.Len(t, commands, 1, "a continued command is one history entry")
	assert.Equal(t, "for f in a b; do\necho \"$f\"\ndone", commands[0])

	// the second and third reads used the continuation prompt
	require.Len(t, source.prompts, 4)
	assert.Equal(t, "> ", source.prompts[1])
	assert.Equal(t, "> ", source.prompts[2])
}

func TestSessionCancelledLineIsDiscarded(t *testing.T) {
	source := &scriptedSource{reads: []scriptedRead{
		{err: editor.ErrCancelled},
		{line: "echo after"},
	}}
	session, stdout, _ := newTestSession(t, source)

	err := session.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "after")
	assert.Equal(t, []string{"echo after"}, session.History.Commands(0))
}

func TestSessionCancelledContinuationDiscardsWholeCommand(t *testing.T) {
	source := &scriptedSource{reads: []scriptedRead{
		{line: "for f in a b; do"},
		{err: editor.ErrCancelled},
		{line: "echo recovered"},
	}}
	session, stdout, _ := newTestSession(t, source)

	err := session.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "recovered")
	assert.Equal(t, []string{"echo recovered"}, session.History.Commands(0))
}

func TestSessionEmptyLinesSkipHistory(t *testing.T) {
	source := &scriptedSource{reads: lines("", "   ", "echo x")}
	session, _, _ := newTestSession(t, source)

	err := session.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"echo x"}, session.History.Commands(0))
}

func TestSessionExitStatusPropagates(t *testing.T) {
	source := &scriptedSource{reads: lines("exit 3")}
	session, _, _ := newTestSession(t, source)

	err := session.Run(context.Background())
	status, ok := interp.IsExitStatus(err)
	require.True(t, ok)
	assert.Equal(t, uint8(3), uint8(status))
}

func TestSessionHistoryExpansion(t *testing.T) {
	source := &scriptedSource{reads: lines("echo hello", "!!")}
	session, stdout, stderr := newTestSession(t, source)

	err := session.Run(context.Background())
	require.NoError(t, err)

	// both the original and the re-run produce output
	assert.Equal(t, 2, bytes.Count(stdout.Bytes(), []byte("hello")))
	// the expansion is echoed like bash does
	assert.Contains(t, stderr.String(), "echo hello")
}

func TestSessionExitCodeRecordedInHistory(t *testing.T) {
	source := &scriptedSource{reads: lines("false")}
	session, _, _ := newTestSession(t, source)

	err := session.Run(context.Background())
	require.NoError(t, err)

	entries := session.History.Entries()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].ExitCode)
	assert.Equal(t, 1, *entries[0].ExitCode)
}

func TestSessionParseErrorDoesNotAbort(t *testing.T) {
	source := &scriptedSource{reads: lines(")", "echo ok")}
	session, stdout, _ := newTestSession(t, source)

	err := session.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "ok")
}
