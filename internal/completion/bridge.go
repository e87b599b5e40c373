// Package completion turns a buffer position into candidate insertions.
// The editor owns presentation; this package only decides what the
// candidates are and how much text a single-match acceptance inserts.
package completion

import (
	"context"
	"sort"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Candidate is one completion suggestion.
type Candidate struct {
	// Value replaces the word under the cursor when accepted.
	Value string
	// Display is shown in the menu when it differs from Value (e.g. a
	// trailing "/" on directories). Empty means show Value.
	Display string
	// Description is optional menu metadata.
	Description string
}

func (c Candidate) Shown() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Value
}

// Request is a completion query at a cursor position.
type Request struct {
	Buffer string
	Pos    int
}

// Response carries the outcome of a completion query.
type Response struct {
	// Candidates lists every match, sorted and deduplicated.
	Candidates []Candidate
	// Insert is the text to splice in immediately: the full remainder of
	// a unique match, or the unambiguous common prefix extension when
	// several candidates agree on one. Empty means the editor should show
	// the menu instead.
	Insert string
	// WordStart is the buffer offset where the completed word begins.
	WordStart int
}

// Word describes the token under the cursor.
type Word struct {
	// Text is the partial word being completed.
	Text string
	// CommandPosition is true when the word names the command itself.
	CommandPosition bool
	// Command is the first word of the current simple command, empty in
	// command position.
	Command string
}

// Source produces candidates for one word. A source that has nothing to
// say returns nil and the next source's candidates stand alone.
type Source interface {
	Complete(ctx context.Context, word Word) []Candidate
}

// Bridge fans a request out to its sources and applies the insertion
// policy.
type Bridge struct {
	sources []Source
	logger  *zap.Logger
}

func NewBridge(logger *zap.Logger, sources ...Source) *Bridge {
	return &Bridge{sources: sources, logger: logger}
}

// Complete resolves the word at the cursor and returns the candidates.
func (b *Bridge) Complete(ctx context.Context, req Request) Response {
	pos := req.Pos
	if pos > len(req.Buffer) {
		pos = len(req.Buffer)
	}
	if pos < 0 {
		pos = 0
	}

	start := wordStart(req.Buffer, pos)
	word := Word{
		Text:            req.Buffer[start:pos],
		CommandPosition: commandPosition(req.Buffer[:start]),
	}
	if !word.CommandPosition {
		word.Command = commandName(req.Buffer[:start])
	}

	var candidates []Candidate
	for _, source := range b.sources {
		candidates = append(candidates, source.Complete(ctx, word)...)
	}
	candidates = lo.UniqBy(candidates, func(c Candidate) string { return c.Value })
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Value < candidates[j].Value })

	resp := Response{Candidates: candidates, WordStart: start}
	switch len(candidates) {
	case 0:
	case 1:
		resp.Insert = strings.TrimPrefix(candidates[0].Value, word.Text)
	default:
		common := commonPrefix(candidates)
		if len(common) > len(word.Text) {
			resp.Insert = common[len(word.Text):]
		}
	}
	return resp
}

// wordStart scans back from pos to the start of the current word.
// Whitespace and the shell operators that end a word all break it.
func wordStart(buffer string, pos int) int {
	start := pos
	for start > 0 {
		ch := buffer[start-1]
		if ch == ' ' || ch == '\t' || ch == '\n' ||
			ch == ';' || ch == '|' || ch == '&' ||
			ch == '(' || ch == ')' || ch == '<' || ch == '>' {
			break
		}
		start--
	}
	return start
}

// commandPosition reports whether the word starting after before sits
// where a command name goes: at the line start or right after a control
// operator.
func commandPosition(before string) bool {
	trimmed := strings.TrimRight(before, " \t\n")
	if trimmed == "" {
		return true
	}
	switch trimmed[len(trimmed)-1] {
	case ';', '|', '&', '(':
		return true
	}
	return false
}

// commandName extracts the command word of the simple command the cursor
// sits in: the first token after the last control operator.
func commandName(before string) string {
	segment := before
	if i := strings.LastIndexAny(segment, ";|&("); i >= 0 {
		segment = segment[i+1:]
	}
	fields := strings.Fields(segment)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func commonPrefix(candidates []Candidate) string {
	prefix := candidates[0].Value
	for _, c := range candidates[1:] {
		for !strings.HasPrefix(c.Value, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}
