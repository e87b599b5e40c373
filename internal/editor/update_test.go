package editor

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wrenshell/wren/internal/completion"
	"github.com/wrenshell/wren/internal/history"
	"github.com/wrenshell/wren/internal/signals"
)

type fakeHistory struct {
	entries []history.Entry
}

func (f fakeHistory) Entries() []history.Entry { return f.entries }

func (f fakeHistory) Commands(limit int) []string {
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Command)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

type listSource struct {
	candidates []completion.Candidate
}

func (s listSource) Complete(_ context.Context, _ completion.Word) []completion.Candidate {
	return s.candidates
}

func newTestModel(t *testing.T, opts RichOptions) richModel {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MenuRows <= 0 {
		opts.MenuRows = 8
	}
	return newRichModel("$ ", opts)
}

func apply(t *testing.T, m richModel, msgs ...tea.Msg) richModel {
	t.Helper()
	var model tea.Model = m
	for _, msg := range msgs {
		model, _ = model.(richModel).Update(msg)
	}
	result, ok := model.(richModel)
	require.True(t, ok)
	return result
}

func typeRunes(t *testing.T, m richModel, text string) richModel {
	t.Helper()
	for _, r := range text {
		m = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func TestEnterSubmitsLine(t *testing.T) {
	m := newTestModel(t, RichOptions{})
	m = typeRunes(t, m, "echo hi")
	m = apply(t, m, key(tea.KeyEnter))

	assert.True(t, m.done)
	assert.Equal(t, "echo hi", m.result)
	assert.False(t, m.interrupted)
}

func TestCtrlCInterrupts(t *testing.T) {
	m := newTestModel(t, RichOptions{})
	m = typeRunes(t, m, "half a comm")
	m = apply(t, m, key(tea.KeyCtrlC))

	assert.True(t, m.interrupted)
	assert.Empty(t, m.result)
}

func TestCtrlDOnEmptyLineSignalsEndOfInput(t *testing.T) {
	m := newTestModel(t, RichOptions{})
	m = apply(t, m, key(tea.KeyCtrlD))

	assert.True(t, m.eof)
}

func TestCtrlDWithContentDeletesForward(t *testing.T) {
	m := newTestModel(t, RichOptions{})
	m = typeRunes(t, m, "ab")
	m.input.SetCursor(0)
	m = apply(t, m, key(tea.KeyCtrlD))

	assert.False(t, m.eof)
	assert.Equal(t, "b", m.input.Value())
}

func TestSignalInterruptQuitsEditor(t *testing.T) {
	m := newTestModel(t, RichOptions{})
	m = apply(t, m, signals.Event{Kind: signals.Interrupt, At: time.Now()})

	assert.True(t, m.interrupted)
}

func TestHistoryFeedsInlineSuggestions(t *testing.T) {
	m := newTestModel(t, RichOptions{History: fakeHistory{entries: []history.Entry{
		{Seq: 1, Command: "git status"},
		{Seq: 2, Command: "make test"},
	}}})

	assert.Equal(t, []string{"git status", "make test"}, m.input.AvailableSuggestions())
}

func TestHistoryNavigationRestoresDraft(t *testing.T) {
	m := newTestModel(t, RichOptions{History: fakeHistory{entries: []history.Entry{
		{Seq: 1, Command: "first"},
		{Seq: 2, Command: "second"},
	}}})
	m = typeRunes(t, m, "draft text")

	m = apply(t, m, key(tea.KeyUp))
	assert.Equal(t, "second", m.input.Value())

	m = apply(t, m, key(tea.KeyUp))
	assert.Equal(t, "first", m.input.Value())

	// past the oldest entry stays put
	m = apply(t, m, key(tea.KeyUp))
	assert.Equal(t, "first", m.input.Value())

	m = apply(t, m, key(tea.KeyDown), key(tea.KeyDown))
	assert.Equal(t, "draft text", m.input.Value())
}

func TestTabInsertsUniqueCompletion(t *testing.T) {
	bridge := completion.NewBridge(zap.NewNop(), listSource{candidates: []completion.Candidate{
		{Value: "gitignore"},
	}})

	m := newTestModel(t, RichOptions{Bridge: bridge})
	m = typeRunes(t, m, "cat git")
	m = apply(t, m, key(tea.KeyTab))

	assert.Equal(t, "cat gitignore", m.input.Value())
	assert.False(t, m.menu.open)
}

func TestTabOpensMenuAndEnterAccepts(t *testing.T) {
	bridge := completion.NewBridge(zap.NewNop(), listSource{candidates: []completion.Candidate{
		{Value: "main.go"},
		{Value: "makefile"},
	}})

	m := newTestModel(t, RichOptions{Bridge: bridge})
	m = typeRunes(t, m, "cat ma")
	m = apply(t, m, key(tea.KeyTab))

	require.True(t, m.menu.open)
	require.Len(t, m.menu.candidates, 2)

	// tab cycles, enter accepts
	m = apply(t, m, key(tea.KeyTab))
	assert.Equal(t, 1, m.menu.selected)

	m = apply(t, m, key(tea.KeyEnter))
	assert.Equal(t, "cat makefile", m.input.Value())
	assert.False(t, m.menu.open)
	assert.False(t, m.done, "accepting a completion must not submit the line")
}

func TestEscClosesMenu(t *testing.T) {
	bridge := completion.NewBridge(zap.NewNop(), listSource{candidates: []completion.Candidate{
		{Value: "aa"}, {Value: "ab"},
	}})

	m := newTestModel(t, RichOptions{Bridge: bridge})
	m = typeRunes(t, m, "a")
	m = apply(t, m, key(tea.KeyTab))
	require.True(t, m.menu.open)

	m = apply(t, m, key(tea.KeyEsc))
	assert.False(t, m.menu.open)
}

func TestReverseSearchSelectsMatch(t *testing.T) {
	m := newTestModel(t, RichOptions{History: fakeHistory{entries: []history.Entry{
		{Seq: 1, Command: "make build", CreatedAt: time.Now().Add(-time.Hour)},
		{Seq: 2, Command: "git status", CreatedAt: time.Now()},
	}}})

	m = apply(t, m, key(tea.KeyCtrlR))
	require.True(t, m.search.active)
	assert.Len(t, m.search.matches, 2, "empty query shows all history")

	m = typeRunes(t, m, "git")
	require.Len(t, m.search.matches, 1)

	m = apply(t, m, key(tea.KeyEnter))
	assert.False(t, m.search.active)
	assert.Equal(t, "git status", m.input.Value())
	assert.False(t, m.done)
}

func TestReverseSearchEscLeavesBufferAlone(t *testing.T) {
	m := newTestModel(t, RichOptions{History: fakeHistory{entries: []history.Entry{
		{Seq: 1, Command: "ls"},
	}}})
	m = typeRunes(t, m, "typed")

	m = apply(t, m, key(tea.KeyCtrlR))
	m = typeRunes(t, m, "l")
	m = apply(t, m, key(tea.KeyEsc))

	assert.False(t, m.search.active)
	assert.Equal(t, "typed", m.input.Value())
}

func TestWindowSizePropagates(t *testing.T) {
	m := newTestModel(t, RichOptions{})
	m = apply(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 120, m.input.Width)
}

func TestMenuViewListsCandidates(t *testing.T) {
	bridge := completion.NewBridge(zap.NewNop(), listSource{candidates: []completion.Candidate{
		{Value: "alpha"}, {Value: "apex"},
	}})

	m := newTestModel(t, RichOptions{Bridge: bridge})
	m = apply(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})
	m = typeRunes(t, m, "a")
	m = apply(t, m, key(tea.KeyTab))
	require.True(t, m.menu.open)

	view := m.View()
	assert.Contains(t, view, "alpha")
	assert.Contains(t, view, "apex")
}

func TestSearchViewShowsQuery(t *testing.T) {
	m := newTestModel(t, RichOptions{History: fakeHistory{entries: []history.Entry{
		{Seq: 1, Command: "git log", CreatedAt: time.Now().Add(-2 * time.Minute)},
	}}})
	m = apply(t, m, key(tea.KeyCtrlR))
	m = typeRunes(t, m, "git")

	view := m.View()
	assert.Contains(t, view, "reverse-i-search")
	assert.Contains(t, view, "git")
}
