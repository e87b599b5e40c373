package core

import (
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/interp"

	"github.com/wrenshell/wren/internal/environment"
)

// TryAutocd rewrites a bare directory path into a cd command. Typing
// "../src" at the prompt then behaves like "cd ../src". Returns the
// rewritten line and whether autocd applied.
func TryAutocd(input string, runner *interp.Runner) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" || !autocdEnabled(runner) {
		return input, false
	}

	// single-word inputs only; anything with arguments or operators is a
	// real command line
	if len(strings.Fields(input)) != 1 || strings.ContainsAny(input, "|;&<>()`$'\"") {
		return input, false
	}
	if !mightBePath(input) {
		return input, false
	}

	// a real command or function of the same name wins
	if isExternalCommand(input, runner) {
		return input, false
	}

	if !isDirectory(expandPath(input, runner)) {
		return input, false
	}

	return "cd " + shellQuote(input), true
}

func autocdEnabled(runner *interp.Runner) bool {
	switch environment.Get(runner, "WREN_AUTOCD") {
	case "off", "0", "false":
		return false
	default:
		return true
	}
}

// mightBePath filters out obvious non-paths before touching the
// filesystem.
func mightBePath(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '/', '~', '.':
		return true
	}
	return strings.Contains(s, "/")
}

// isExternalCommand reports whether word resolves to a defined function
// or a PATH executable. Builtins never reach autocd because the rewrite
// happens before parsing.
func isExternalCommand(word string, runner *interp.Runner) bool {
	if runner != nil && runner.Funcs[word] != nil {
		return true
	}
	_, err := exec.LookPath(word)
	return err == nil
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// expandPath expands a leading tilde and environment variables.
func expandPath(path string, runner *interp.Runner) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home := environment.Get(runner, "HOME")
		if home == "" {
			if usr, err := user.Current(); err == nil {
				home = usr.HomeDir
			}
		}
		if home != "" {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	} else if strings.HasPrefix(path, "~") {
		// ~username form
		name, rest, _ := strings.Cut(path[1:], "/")
		if usr, err := user.Lookup(name); err == nil {
			path = filepath.Join(usr.HomeDir, rest)
		}
	}

	return os.Expand(path, func(key string) string {
		return environment.Get(runner, key)
	})
}

// shellQuote single-quotes a path for safe re-parsing.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`!*?[](){}|&;<>#") {
		return s
	}

	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		if r == '\'' {
			sb.WriteString(`'\''`)
		} else {
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}
