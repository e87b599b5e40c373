package core

import (
	"strings"

	"github.com/wrenshell/wren/internal/history"
)

// expandHistory rewrites !! and !$ references against the most recent
// history entry. Text inside single quotes and escaped bangs are left
// alone. Returns the rewritten line and whether anything changed.
func expandHistory(input string, store *history.FileStore) (string, bool) {
	if !strings.Contains(input, "!") || store == nil || store.Len() == 0 {
		return input, false
	}

	entries := store.Entries()
	lastCmd := entries[len(entries)-1].Command
	lastArg := lastArgument(lastCmd)

	var sb strings.Builder
	expanded := false
	inSingleQuote := false

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\'' {
			inSingleQuote = !inSingleQuote
			sb.WriteRune(r)
			continue
		}
		if inSingleQuote {
			sb.WriteRune(r)
			continue
		}
		if r == '\\' {
			sb.WriteRune(r)
			if i+1 < len(runes) {
				sb.WriteRune(runes[i+1])
				i++
			}
			continue
		}

		if r == '!' && i+1 < len(runes) && runes[i+1] == '!' {
			sb.WriteString(lastCmd)
			expanded = true
			i++
			continue
		}
		if r == '!' && i+1 < len(runes) && runes[i+1] == '$' {
			sb.WriteString(lastArg)
			expanded = true
			i++
			continue
		}

		sb.WriteRune(r)
	}

	return sb.String(), expanded
}

// lastArgument extracts the final word of a command, respecting quotes.
func lastArgument(command string) string {
	var words []string
	var current strings.Builder
	inSingle, inDouble := false, false

	for i := 0; i < len(command); i++ {
		ch := command[i]
		switch {
		case ch == '\\' && !inSingle && i+1 < len(command):
			current.WriteByte(ch)
			current.WriteByte(command[i+1])
			i++
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
			current.WriteByte(ch)
		case ch == '"' && !inSingle:
			inDouble = !inDouble
			current.WriteByte(ch)
		case (ch == ' ' || ch == '\t' || ch == '\n') && !inSingle && !inDouble:
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(ch)
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}
