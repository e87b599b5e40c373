package completion

import (
	"context"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SpecKind selects how a completion spec produces candidates.
type SpecKind int

const (
	// WordListSpec completes from a fixed space-separated word list.
	WordListSpec SpecKind = iota
	// CommandSpec runs an external command and parses its output.
	CommandSpec
)

// Spec is one registration made by the complete builtin.
type Spec struct {
	Command string
	Kind    SpecKind
	Value   string
}

// SpecRegistry holds the completion specs registered at runtime.
type SpecRegistry struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

func NewSpecRegistry() *SpecRegistry {
	return &SpecRegistry{specs: make(map[string]Spec)}
}

func (r *SpecRegistry) Add(spec Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.Command] = spec
}

func (r *SpecRegistry) Remove(command string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.specs, command)
}

func (r *SpecRegistry) Get(command string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[command]
	return spec, ok
}

// List returns all specs sorted by command name.
func (r *SpecRegistry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]Spec, 0, len(r.specs))
	for _, spec := range r.specs {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Command < specs[j].Command })
	return specs
}

// commandSpecTimeout bounds external completion commands so a hung one
// cannot freeze the editor.
const commandSpecTimeout = 2 * time.Second

// SpecSource serves candidates from the registered specs.
type SpecSource struct {
	registry *SpecRegistry
	logger   *zap.Logger
}

func NewSpecSource(registry *SpecRegistry, logger *zap.Logger) *SpecSource {
	return &SpecSource{registry: registry, logger: logger}
}

func (s *SpecSource) Complete(ctx context.Context, word Word) []Candidate {
	if word.CommandPosition || word.Command == "" {
		return nil
	}
	spec, ok := s.registry.Get(word.Command)
	if !ok {
		return nil
	}

	switch spec.Kind {
	case WordListSpec:
		var candidates []Candidate
		for _, w := range strings.Fields(spec.Value) {
			if strings.HasPrefix(w, word.Text) {
				candidates = append(candidates, Candidate{Value: w})
			}
		}
		return candidates
	case CommandSpec:
		return s.runCommandSpec(ctx, spec, word)
	}
	return nil
}

// runCommandSpec executes the spec's command with the completion context
// in the environment, the same contract bash uses for complete -C.
func (s *SpecSource) runCommandSpec(ctx context.Context, spec Spec, word Word) []Candidate {
	ctx, cancel := context.WithTimeout(ctx, commandSpecTimeout)
	defer cancel()

	line := word.Command + " " + word.Text
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", spec.Value)
	cmd.Env = append(cmd.Environ(),
		"COMP_LINE="+line,
		"COMP_WORD="+word.Text,
	)

	output, err := cmd.Output()
	if err != nil {
		s.logger.Debug("completion command failed",
			zap.String("command", word.Command), zap.Error(err))
		return nil
	}

	var candidates []Candidate
	for _, c := range ParseCommandOutput(string(output)) {
		if strings.HasPrefix(c.Value, word.Text) {
			candidates = append(candidates, c)
		}
	}
	return candidates
}
