package completion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/interp"
)

// shellBuiltins are the names completed in command position alongside
// executables found on PATH.
var shellBuiltins = []string{
	"alias", "bg", "cd", "echo", "exec", "exit", "export", "false",
	"fg", "history", "jobs", "pwd", "read", "set", "shift", "source",
	"test", "true", "type", "umask", "unalias", "unset", "wait",
}

// ShellSource completes against live interpreter state: variables for
// $-prefixed words, builtins plus PATH executables in command position,
// and filesystem entries everywhere else.
type ShellSource struct {
	runner *interp.Runner
	logger *zap.Logger

	mu           sync.Mutex
	pathCommands []string
	pathValue    string
}

func NewShellSource(runner *interp.Runner, logger *zap.Logger) *ShellSource {
	return &ShellSource{runner: runner, logger: logger}
}

func (s *ShellSource) Complete(ctx context.Context, word Word) []Candidate {
	switch {
	case strings.HasPrefix(word.Text, "$"):
		return s.completeVariables(word.Text)
	case word.CommandPosition && !strings.ContainsAny(word.Text, "/."):
		return s.completeCommands(word.Text)
	default:
		return s.completeFiles(word.Text)
	}
}

func (s *ShellSource) completeVariables(word string) []Candidate {
	prefix := strings.TrimPrefix(word, "$")
	var candidates []Candidate
	if s.runner != nil {
		for name := range s.runner.Vars {
			if strings.HasPrefix(name, prefix) {
				candidates = append(candidates, Candidate{Value: "$" + name})
			}
		}
	}
	for _, kv := range os.Environ() {
		name, _, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(name, prefix) {
			candidates = append(candidates, Candidate{Value: "$" + name})
		}
	}
	return candidates
}

func (s *ShellSource) completeCommands(word string) []Candidate {
	var candidates []Candidate
	for _, name := range shellBuiltins {
		if strings.HasPrefix(name, word) {
			candidates = append(candidates, Candidate{Value: name, Description: "builtin"})
		}
	}
	for _, name := range s.commandsOnPath() {
		if strings.HasPrefix(name, word) {
			candidates = append(candidates, Candidate{Value: name})
		}
	}
	return candidates
}

// commandsOnPath scans PATH once and caches the result until PATH
// changes. Directory read errors are skipped; a missing dir on PATH is
// routine.
func (s *ShellSource) commandsOnPath() []string {
	path := os.Getenv("PATH")
	if s.runner != nil {
		if v, ok := s.runner.Vars["PATH"]; ok && v.IsSet() {
			path = v.String()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if path == s.pathValue && s.pathCommands != nil {
		return s.pathCommands
	}

	seen := map[string]bool{}
	var names []string
	for _, dir := range filepath.SplitList(path) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || seen[entry.Name()] {
				continue
			}
			seen[entry.Name()] = true
			names = append(names, entry.Name())
		}
	}

	s.pathValue = path
	s.pathCommands = names
	return names
}

func (s *ShellSource) completeFiles(word string) []Candidate {
	dir, base := filepath.Split(expandTilde(word))
	searchDir := dir
	if searchDir == "" {
		searchDir = "."
		if s.runner != nil && s.runner.Dir != "" {
			searchDir = s.runner.Dir
		}
	}

	entries, err := os.ReadDir(searchDir)
	if err != nil {
		s.logger.Debug("file completion read failed", zap.String("dir", searchDir), zap.Error(err))
		return nil
	}

	var candidates []Candidate
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		// hidden files only complete when asked for explicitly
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		value := dir + name
		if entry.IsDir() {
			candidates = append(candidates, Candidate{Value: value + "/", Display: value + "/"})
		} else {
			candidates = append(candidates, Candidate{Value: value})
		}
	}
	return candidates
}

func expandTilde(word string) string {
	if word == "~" || strings.HasPrefix(word, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + strings.TrimPrefix(word, "~")
		}
	}
	return word
}
