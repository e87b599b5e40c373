package editor

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/wrenshell/wren/internal/completion"
	"github.com/wrenshell/wren/internal/signals"
)

const completeTimeout = 2 * time.Second

func (m richModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case signals.Event:
		return m.handleSignal(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {

		case "enter":
			return m.handleEnter()

		case "ctrl+c":
			m.interrupted = true
			m.done = true
			return m, tea.Quit

		case "ctrl+d":
			if m.input.Value() == "" {
				m.eof = true
				m.done = true
				return m, tea.Quit
			}
			// non-empty buffer: fall through so the input treats it as
			// delete-forward

		case "ctrl+l":
			return m, tea.ClearScreen

		case "ctrl+v":
			return m.handlePaste()

		case "tab":
			if m.search.active {
				return m, nil
			}
			return m.handleComplete()

		case "ctrl+r":
			return m.handleReverseSearch()

		case "esc":
			if m.search.active {
				m.search = searchState{}
				return m, nil
			}
			if m.menu.open {
				m.menu = menuState{}
				return m, nil
			}
			return m, nil

		case "up":
			if m.search.active {
				m.moveSearchSelection(-1)
				return m, nil
			}
			if m.menu.open {
				m.moveMenuSelection(-1)
				return m, nil
			}
			return m.historyBack()

		case "down":
			if m.search.active {
				m.moveSearchSelection(1)
				return m, nil
			}
			if m.menu.open {
				m.moveMenuSelection(1)
				return m, nil
			}
			return m.historyForward()
		}

		if m.search.active {
			return m.updateSearchQuery(msg)
		}
		// any other key invalidates the open menu
		m.menu = menuState{}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m richModel) handleSignal(ev signals.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case signals.Interrupt:
		m.interrupted = true
		m.done = true
		return m, tea.Quit
	case signals.WindowChanged, signals.Resume:
		// bubbletea issues its own WindowSizeMsg; a repaint is enough
		return m, nil
	default:
		m.logger.Debug("editor ignoring signal", zap.Stringer("kind", ev.Kind))
		return m, nil
	}
}

func (m richModel) handleEnter() (tea.Model, tea.Cmd) {
	if m.search.active {
		if sel := m.selectedSearchMatch(); sel != nil {
			m.input.SetValue(sel.entry.Command)
			m.input.CursorEnd()
		}
		m.search = searchState{}
		return m, nil
	}
	if m.menu.open {
		m.acceptMenuSelection()
		return m, nil
	}

	m.result = m.input.Value()
	m.done = true
	return m, tea.Quit
}

func (m richModel) handlePaste() (tea.Model, tea.Cmd) {
	text, err := clipboard.ReadAll()
	if err != nil {
		m.logger.Debug("clipboard read failed", zap.Error(err))
		return m, nil
	}
	// pasted newlines would submit lines the user never saw
	text = strings.ReplaceAll(text, "\n", " ")
	m.insertAtCursor(text)
	return m, nil
}

func (m *richModel) insertAtCursor(text string) {
	value := m.input.Value()
	pos := m.input.Position()
	if pos > len(value) {
		pos = len(value)
	}
	m.input.SetValue(value[:pos] + text + value[pos:])
	m.input.SetCursor(pos + len(text))
}

// completion

func (m richModel) handleComplete() (tea.Model, tea.Cmd) {
	if m.bridge == nil {
		return m, nil
	}
	if m.menu.open {
		m.moveMenuSelection(1)
		return m, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), completeTimeout)
	defer cancel()

	resp := m.bridge.Complete(ctx, completion.Request{
		Buffer: m.input.Value(),
		Pos:    m.input.Position(),
	})

	if resp.Insert != "" {
		m.insertAtCursor(resp.Insert)
		return m, nil
	}
	if len(resp.Candidates) > 1 {
		m.menu = menuState{
			open:       true,
			candidates: resp.Candidates,
			wordStart:  resp.WordStart,
		}
	}
	return m, nil
}

func (m *richModel) moveMenuSelection(delta int) {
	n := len(m.menu.candidates)
	if n == 0 {
		return
	}
	m.menu.selected = ((m.menu.selected+delta)%n + n) % n
}

func (m *richModel) acceptMenuSelection() {
	if m.menu.selected >= len(m.menu.candidates) {
		m.menu = menuState{}
		return
	}
	chosen := m.menu.candidates[m.menu.selected].Value
	value := m.input.Value()
	pos := m.input.Position()
	if pos > len(value) {
		pos = len(value)
	}
	m.input.SetValue(value[:m.menu.wordStart] + chosen + value[pos:])
	m.input.SetCursor(m.menu.wordStart + len(chosen))
	m.menu = menuState{}
}

// history navigation

func (m richModel) historyBack() (tea.Model, tea.Cmd) {
	if m.historyIndex == 0 || len(m.history) == 0 {
		return m, nil
	}
	if m.historyIndex == len(m.history) {
		m.draft = m.input.Value()
	}
	m.historyIndex--
	m.input.SetValue(m.history[m.historyIndex].Command)
	m.input.CursorEnd()
	return m, nil
}

func (m richModel) historyForward() (tea.Model, tea.Cmd) {
	if m.historyIndex >= len(m.history) {
		return m, nil
	}
	m.historyIndex++
	if m.historyIndex == len(m.history) {
		m.input.SetValue(m.draft)
	} else {
		m.input.SetValue(m.history[m.historyIndex].Command)
	}
	m.input.CursorEnd()
	return m, nil
}

// reverse search

func (m richModel) handleReverseSearch() (tea.Model, tea.Cmd) {
	if m.search.active {
		m.moveSearchSelection(1)
		return m, nil
	}
	m.search = searchState{active: true}
	m.refreshSearchMatches()
	return m, nil
}

func (m richModel) updateSearchQuery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "backspace":
		if q := m.search.query; q != "" {
			m.search.query = q[:len(q)-1]
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.search.query += string(msg.Runes)
		} else if msg.String() == " " {
			m.search.query += " "
		}
	}
	m.refreshSearchMatches()
	return m, nil
}

// refreshSearchMatches fuzzy-ranks history against the query, newest
// first when the query is empty.
func (m *richModel) refreshSearchMatches() {
	m.search.selected = 0
	m.search.matches = m.search.matches[:0]

	if m.search.query == "" {
		for i := len(m.history) - 1; i >= 0; i-- {
			m.search.matches = append(m.search.matches, searchMatch{entry: m.history[i]})
		}
		return
	}

	commands := make([]string, len(m.history))
	for i, e := range m.history {
		commands[i] = e.Command
	}
	for _, match := range fuzzy.Find(m.search.query, commands) {
		m.search.matches = append(m.search.matches, searchMatch{entry: m.history[match.Index]})
	}
}

func (m *richModel) moveSearchSelection(delta int) {
	n := len(m.search.matches)
	if n == 0 {
		return
	}
	m.search.selected = ((m.search.selected+delta)%n + n) % n
}

func (m *richModel) selectedSearchMatch() *searchMatch {
	if m.search.selected >= len(m.search.matches) {
		return nil
	}
	return &m.search.matches[m.search.selected]
}
