package core

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/wrenshell/wren/internal/history"
)

func newExpansionStore(t *testing.T, commands ...string) *history.FileStore {
	t.Helper()
	store := history.NewFileStore(filepath.Join(t.TempDir(), "history"), history.Options{}, zap.NewNop())
	t.Cleanup(func() { _ = store.Close() })
	for _, cmd := range commands {
		store.Append(cmd)
	}
	return store
}

func TestExpandHistory(t *testing.T) {
	store := newExpansionStore(t, "echo hello")

	out, expanded := expandHistory("!!", store)
	assert.True(t, expanded)
	assert.Equal(t, "echo hello", out)

	out, expanded = expandHistory("!$", store)
	assert.True(t, expanded)
	assert.Equal(t, "hello", out)

	out, expanded = expandHistory("echo !!", store)
	assert.True(t, expanded)
	assert.Equal(t, "echo echo hello", out)

	// single quotes suppress expansion
	out, expanded = expandHistory("'!!'", store)
	assert.False(t, expanded)
	assert.Equal(t, "'!!'", out)

	// double quotes do not
	out, expanded = expandHistory(`"!!"`, store)
	assert.True(t, expanded)
	assert.Equal(t, `"echo hello"`, out)

	// escaped bang stays literal
	out, expanded = expandHistory(`\!!`, store)
	assert.False(t, expanded)
	assert.Equal(t, `\!!`, out)
}

func TestExpandHistoryLastArgument(t *testing.T) {
	store := newExpansionStore(t, "ls -la /tmp")

	out, expanded := expandHistory("!$", store)
	assert.True(t, expanded)
	assert.Equal(t, "/tmp", out)
}

func TestExpandHistoryQuotedLastArgument(t *testing.T) {
	store := newExpansionStore(t, `cp file 'a dir/target'`)

	out, expanded := expandHistory("cd !$", store)
	assert.True(t, expanded)
	assert.Equal(t, `cd 'a dir/target'`, out)
}

func TestExpandHistoryEmptyStore(t *testing.T) {
	store := newExpansionStore(t)

	out, expanded := expandHistory("!!", store)
	assert.False(t, expanded)
	assert.Equal(t, "!!", out)
}
