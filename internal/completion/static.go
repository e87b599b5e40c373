package completion

import (
	"context"
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// defaultCompletions holds the YAML subcommand lists shipped with the
// shell. User files layer on top and win on conflict.
//
//go:embed data/*.yaml
var defaultCompletions embed.FS

// completionFile is the on-disk shape of a completion definition file.
type completionFile struct {
	Commands map[string][]staticEntry `yaml:"commands"`
}

type staticEntry struct {
	Value       string `yaml:"value"`
	Description string `yaml:"description,omitempty"`
}

// StaticSource completes subcommands for known commands from fixed word
// lists: embedded defaults plus user definitions in the config dir.
type StaticSource struct {
	logger *zap.Logger

	mu          sync.RWMutex
	completions map[string][]Candidate
}

func NewStaticSource(logger *zap.Logger) *StaticSource {
	s := &StaticSource{
		logger:      logger,
		completions: make(map[string][]Candidate),
	}
	s.loadEmbedded()
	s.loadUserFiles()
	return s
}

func (s *StaticSource) Complete(_ context.Context, word Word) []Candidate {
	if word.CommandPosition || word.Command == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Candidate
	for _, c := range s.completions[word.Command] {
		if strings.HasPrefix(c.Value, word.Text) {
			matches = append(matches, c)
		}
	}
	return matches
}

// Register replaces the word list for one command. The complete builtin
// and user config files both land here.
func (s *StaticSource) Register(command string, candidates []Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions[command] = candidates
}

func (s *StaticSource) loadEmbedded() {
	err := fs.WalkDir(defaultCompletions, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(defaultCompletions, path)
		if err != nil {
			return err
		}
		return s.mergeYAML(data)
	})
	if err != nil {
		s.logger.Warn("embedded completions failed to load", zap.Error(err))
	}
}

// loadUserFiles reads completion definitions from the usual config
// locations. The first readable file wins.
func (s *StaticSource) loadUserFiles() {
	for _, path := range userCompletionPaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := s.mergeYAML(data); err != nil {
			s.logger.Warn("user completions ignored",
				zap.String("path", path), zap.Error(err))
			continue
		}
		return
	}
}

func (s *StaticSource) mergeYAML(data []byte) error {
	var file completionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	for command, entries := range file.Commands {
		candidates := make([]Candidate, 0, len(entries))
		for _, e := range entries {
			candidates = append(candidates, Candidate{
				Value:       e.Value,
				Description: e.Description,
			})
		}
		s.Register(command, candidates)
	}
	return nil
}

func userCompletionPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "wren", "completions.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "wren", "completions.yaml"),
			filepath.Join(home, ".wren_completions.yaml"),
		)
	}
	return paths
}
