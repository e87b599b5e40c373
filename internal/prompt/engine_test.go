package prompt

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
)

func newTestEngine(t *testing.T, timeout time.Duration, vars map[string]string) *Engine {
	t.Helper()
	runner, err := interp.New()
	require.NoError(t, err)
	if runner.Vars == nil {
		runner.Vars = map[string]expand.Variable{}
	}
	for name, value := range vars {
		runner.Vars[name] = expand.Variable{Exported: true, Kind: expand.String, Str: value}
	}
	return NewEngine(runner, timeout, zap.NewNop())
}

func TestRenderStaticTemplate(t *testing.T) {
	engine := newTestEngine(t, time.Second, nil)
	assert.Equal(t, "wren> ", engine.Render(context.Background(), "wren> "))
}

func TestRenderParameterExpansion(t *testing.T) {
	engine := newTestEngine(t, time.Second, map[string]string{"WREN_HOST": "box"})
	assert.Equal(t, "box$ ", engine.Render(context.Background(), "$WREN_HOST$ "))
}

func TestRenderCommandSubstitution(t *testing.T) {
	engine := newTestEngine(t, 5*time.Second, nil)
	assert.Equal(t, "[hi] ", engine.Render(context.Background(), "[$(echo hi)] "))
}

func TestRenderBrokenTemplateFallsBack(t *testing.T) {
	engine := newTestEngine(t, time.Second, nil)
	assert.Equal(t, fallback, engine.Render(context.Background(), "$(unclosed"))
}

func TestRenderEmptyTemplateFallsBack(t *testing.T) {
	engine := newTestEngine(t, time.Second, nil)
	assert.Equal(t, fallback, engine.Render(context.Background(), ""))
}

func TestRenderSlowSubstitutionTimesOut(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on the sleep utility")
	}
	engine := newTestEngine(t, 50*time.Millisecond, nil)

	start := time.Now()
	rendered := engine.Render(context.Background(), "$(sleep 5)> ")

	assert.Equal(t, fallback, rendered)
	assert.Less(t, time.Since(start), 2*time.Second)
}
