package editor

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wrenshell/wren/internal/completion"
	"github.com/wrenshell/wren/internal/history"
	"github.com/wrenshell/wren/internal/signals"
)

// HistoryProvider feeds the editor's Up/Down navigation, reverse search
// and inline suggestions. *history.FileStore satisfies it.
type HistoryProvider interface {
	Entries() []history.Entry
	Commands(limit int) []string
}

// RichOptions configures the rich line editor.
type RichOptions struct {
	History  HistoryProvider
	Bridge   *completion.Bridge
	Queue    *signals.Queue
	Logger   *zap.Logger
	Output   io.Writer
	MenuRows int
}

// Rich is the interactive line editor. Each ReadLine runs a fresh
// bubbletea program so no state leaks between lines.
type Rich struct {
	opts RichOptions
}

func NewRich(opts RichOptions) *Rich {
	if opts.MenuRows <= 0 {
		opts.MenuRows = 8
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Rich{opts: opts}
}

func (r *Rich) ReadLine(ctx context.Context, prompt string) (string, error) {
	if r.opts.Queue != nil {
		r.opts.Queue.Drain()
	}

	model := newRichModel(prompt, r.opts)
	p := tea.NewProgram(model)

	stop := make(chan struct{})
	defer close(stop)
	go r.pump(ctx, p, stop)

	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(richModel)
	if !ok {
		return "", fmt.Errorf("editor finished with unexpected model %T", final)
	}

	out := r.opts.Output
	switch {
	case m.interrupted:
		fmt.Fprint(out, resetCursorColumn+prompt+m.input.Value()+"^C\n")
		return "", ErrCancelled
	case m.eof:
		fmt.Fprint(out, resetCursorColumn+prompt+"\n")
		return "", ErrEndOfInput
	default:
		// re-print the accepted line so it persists in the scrollback
		fmt.Fprint(out, resetCursorColumn+prompt+m.result+"\n")
		return m.result, nil
	}
}

// pump forwards signal events into the running program.
func (r *Rich) pump(ctx context.Context, p *tea.Program, stop <-chan struct{}) {
	if r.opts.Queue == nil {
		return
	}
	for {
		select {
		case ev := <-r.opts.Queue.Events():
			p.Send(ev)
		case ev := <-r.opts.Queue.Resize():
			p.Send(ev)
		case <-ctx.Done():
			p.Quit()
			return
		case <-stop:
			return
		}
	}
}

func (r *Rich) Close() error { return nil }

const resetCursorColumn = "\x1b[0G"

type menuState struct {
	open       bool
	candidates []completion.Candidate
	selected   int
	wordStart  int
}

type searchMatch struct {
	entry history.Entry
}

type searchState struct {
	active   bool
	query    string
	matches  []searchMatch
	selected int
}

type richModel struct {
	input  textinput.Model
	logger *zap.Logger

	bridge   *completion.Bridge
	menu     menuState
	menuRows int

	// history is oldest first; historyIndex == len(history) means the
	// live line being typed
	history      []history.Entry
	historyIndex int
	draft        string

	search searchState

	width       int
	result      string
	done        bool
	interrupted bool
	eof         bool

	selectedStyle lipgloss.Style
	dimStyle      lipgloss.Style
	searchStyle   lipgloss.Style
}

func newRichModel(prompt string, opts RichOptions) richModel {
	input := textinput.New()
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorStatic)
	input.ShowSuggestions = true
	input.Focus()

	var entries []history.Entry
	if opts.History != nil {
		entries = opts.History.Entries()
		input.SetSuggestions(opts.History.Commands(0))
	}

	return richModel{
		input:        input,
		logger:       opts.Logger,
		bridge:       opts.Bridge,
		menuRows:     opts.MenuRows,
		history:      entries,
		historyIndex: len(entries),

		selectedStyle: lipgloss.NewStyle().Reverse(true),
		dimStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		searchStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
}

func (m richModel) Init() tea.Cmd {
	return textinput.Blink
}
