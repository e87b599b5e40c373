package core

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempDataDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldDefaultPaths := defaultPaths
	t.Cleanup(func() { defaultPaths = oldDefaultPaths })
	defaultPaths = &Paths{DataDir: tmpDir}
	return tmpDir
}

func TestRotateLogFilesKeepsMostRecentTen(t *testing.T) {
	tmpDir := withTempDataDir(t)

	now := time.Now()
	for i := 0; i < 15; i++ {
		path := filepath.Join(tmpDir, fmt.Sprintf("wren.%d.zst", i))
		require.NoError(t, os.WriteFile(path, []byte("log"), 0644))
		// stagger mtimes so ordering is deterministic
		mtime := now.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	require.NoError(t, RotateLogFiles())

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 10)

	// the oldest five are the ones removed
	for i := 0; i < 5; i++ {
		_, err := os.Stat(filepath.Join(tmpDir, fmt.Sprintf("wren.%d.zst", i)))
		assert.True(t, os.IsNotExist(err))
	}
}

func TestRotateLogFilesLeavesOtherFilesAlone(t *testing.T) {
	tmpDir := withTempDataDir(t)

	other := filepath.Join(tmpDir, "history")
	require.NoError(t, os.WriteFile(other, []byte("data"), 0644))

	require.NoError(t, RotateLogFiles())

	_, err := os.Stat(other)
	assert.NoError(t, err)
}

func TestRotateLogFilesEmptyDirectory(t *testing.T) {
	withTempDataDir(t)
	assert.NoError(t, RotateLogFiles())
}
