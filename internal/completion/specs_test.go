package completion

import (
	"bytes"
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSpecSourceWordList(t *testing.T) {
	registry := NewSpecRegistry()
	registry.Add(Spec{Command: "service", Kind: WordListSpec, Value: "start stop restart"})
	source := NewSpecSource(registry, zap.NewNop())

	candidates := source.Complete(context.Background(), Word{Text: "st", Command: "service"})

	values := make([]string, 0, len(candidates))
	for _, c := range candidates {
		values = append(values, c.Value)
	}
	assert.ElementsMatch(t, []string{"start", "stop"}, values)
}

func TestSpecSourceUnknownCommand(t *testing.T) {
	source := NewSpecSource(NewSpecRegistry(), zap.NewNop())

	assert.Empty(t, source.Complete(context.Background(), Word{Text: "x", Command: "nothing"}))
	assert.Empty(t, source.Complete(context.Background(), Word{Text: "x", CommandPosition: true}))
}

func TestSpecSourceCommandOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/sh")
	}

	registry := NewSpecRegistry()
	registry.Add(Spec{Command: "mytool", Kind: CommandSpec, Value: `printf 'alpha\nbeta\n'`})
	source := NewSpecSource(registry, zap.NewNop())

	candidates := source.Complete(context.Background(), Word{Text: "al", Command: "mytool"})

	require.Len(t, candidates, 1)
	assert.Equal(t, "alpha", candidates[0].Value)
}

func TestSpecRegistryListSorted(t *testing.T) {
	registry := NewSpecRegistry()
	registry.Add(Spec{Command: "zeta", Kind: WordListSpec, Value: "a"})
	registry.Add(Spec{Command: "alpha", Kind: WordListSpec, Value: "b"})

	specs := registry.List()
	require.Len(t, specs, 2)
	assert.Equal(t, "alpha", specs[0].Command)
	assert.Equal(t, "zeta", specs[1].Command)
}

func TestRunCompleteRegistersWordList(t *testing.T) {
	registry := NewSpecRegistry()
	var out bytes.Buffer

	require.NoError(t, runComplete(registry, []string{"-W", "start stop", "service"}, &out))

	spec, ok := registry.Get("service")
	require.True(t, ok)
	assert.Equal(t, WordListSpec, spec.Kind)
	assert.Equal(t, "start stop", spec.Value)
}

func TestRunCompleteRemove(t *testing.T) {
	registry := NewSpecRegistry()
	registry.Add(Spec{Command: "service", Kind: WordListSpec, Value: "x"})
	var out bytes.Buffer

	require.NoError(t, runComplete(registry, []string{"-r", "service"}, &out))

	_, ok := registry.Get("service")
	assert.False(t, ok)
}

func TestRunCompletePrint(t *testing.T) {
	registry := NewSpecRegistry()
	registry.Add(Spec{Command: "service", Kind: WordListSpec, Value: "start stop"})
	registry.Add(Spec{Command: "mytool", Kind: CommandSpec, Value: "mytool --complete"})
	var out bytes.Buffer

	require.NoError(t, runComplete(registry, []string{"-p"}, &out))

	assert.Contains(t, out.String(), `complete -W "start stop" service`)
	assert.Contains(t, out.String(), `complete -C "mytool --complete" mytool`)
}

func TestRunCompleteErrors(t *testing.T) {
	registry := NewSpecRegistry()
	var out bytes.Buffer

	assert.ErrorContains(t, runComplete(registry, []string{"-W"}, &out), "requires a word list")
	assert.ErrorContains(t, runComplete(registry, []string{"-W", "a b"}, &out), "no command specified")
	assert.ErrorContains(t, runComplete(registry, []string{"service"}, &out), "missing completion action")
	assert.ErrorContains(t, runComplete(registry, []string{"-x"}, &out), "unknown option")
}

func TestParseCommandOutput(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []Candidate
	}{
		{
			name:   "empty output",
			output: "  \n ",
			want:   nil,
		},
		{
			name:   "plain lines",
			output: "alpha\nbeta\n",
			want:   []Candidate{{Value: "alpha"}, {Value: "beta"}},
		},
		{
			name:   "tab separated descriptions",
			output: "start\tBegin the service\nstop\tEnd the service",
			want: []Candidate{
				{Value: "start", Description: "Begin the service"},
				{Value: "stop", Description: "End the service"},
			},
		},
		{
			name:   "json string array",
			output: `["alpha", "beta"]`,
			want:   []Candidate{{Value: "alpha"}, {Value: "beta"}},
		},
		{
			name:   "json object array",
			output: `[{"Value": "alpha", "Description": "first"}]`,
			want:   []Candidate{{Value: "alpha", Description: "first"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommandOutput(tt.output))
		})
	}
}
