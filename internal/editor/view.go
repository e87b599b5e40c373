package editor

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

func (m richModel) View() string {
	if m.done {
		// render nothing on exit; ReadLine re-prints the final line
		return ""
	}

	var b strings.Builder
	b.WriteString(m.input.View())

	switch {
	case m.search.active:
		b.WriteString("\n")
		b.WriteString(m.searchView())
	case m.menu.open:
		b.WriteString("\n")
		b.WriteString(m.menuView())
	}
	return b.String()
}

// menuView lays candidates out in columns sized by the widest entry.
func (m richModel) menuView() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	colWidth := 0
	for _, c := range m.menu.candidates {
		if w := runewidth.StringWidth(c.Shown()); w > colWidth {
			colWidth = w
		}
	}
	colWidth += 2
	cols := width / colWidth
	if cols < 1 {
		cols = 1
	}

	visible := m.menuRows * cols
	candidates := m.menu.candidates
	overflow := 0
	if len(candidates) > visible {
		overflow = len(candidates) - visible
		candidates = candidates[:visible]
	}

	var b strings.Builder
	for i, c := range candidates {
		cell := runewidth.FillRight(c.Shown(), colWidth)
		if i == m.menu.selected {
			cell = m.selectedStyle.Render(cell)
		}
		b.WriteString(cell)
		if (i+1)%cols == 0 && i != len(candidates)-1 {
			b.WriteString("\n")
		}
	}
	if overflow > 0 {
		b.WriteString("\n")
		b.WriteString(m.dimStyle.Render(fmt.Sprintf("… and %d more", overflow)))
	}
	return b.String()
}

// searchView shows the reverse search query and its ranked matches with
// relative timestamps.
func (m richModel) searchView() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(m.searchStyle.Render(fmt.Sprintf("(reverse-i-search) `%s':", m.search.query)))

	matches := m.search.matches
	if len(matches) > m.menuRows {
		matches = matches[:m.menuRows]
	}
	if len(matches) == 0 {
		b.WriteString("\n")
		b.WriteString(m.dimStyle.Render("no matches"))
		return b.String()
	}

	for i, match := range matches {
		age := ""
		if !match.entry.CreatedAt.IsZero() {
			age = humanize.Time(match.entry.CreatedAt)
		}
		line := match.entry.Command
		if age != "" {
			pad := width - runewidth.StringWidth(line) - runewidth.StringWidth(age) - 2
			if pad < 2 {
				pad = 2
			}
			line += strings.Repeat(" ", pad) + m.dimStyle.Render(age)
		}
		line = truncate.StringWithTail(line, uint(width), "…")
		if i == m.search.selected {
			line = m.selectedStyle.Render(line)
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}
