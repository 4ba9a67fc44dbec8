package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rotatedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		if e.Name() != "app.log" && strings.HasPrefix(e.Name(), "app.") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestRotatingWriter_RotatesBySize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 100})
	require.NoError(t, err)
	defer w.Close()

	chunk := []byte(strings.Repeat("x", 80))
	_, err = w.Write(chunk)
	require.NoError(t, err)
	_, err = w.Write(chunk)
	require.NoError(t, err)

	assert.Len(t, rotatedFiles(t, dir), 1)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(80), info.Size())
}

func TestRotatingWriter_RotatesDaily(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 1 << 20, Daily: true})
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("first day\n"))
	require.NoError(t, err)

	w.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = w.Write([]byte("next day\n"))
	require.NoError(t, err)

	assert.Len(t, rotatedFiles(t, dir), 1)
}

func TestRotatingWriter_PrunesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 10, MaxBackups: 2})
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 6; i++ {
		_, err := w.Write([]byte("0123456789"))
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, len(rotatedFiles(t, dir)), 2)
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "app.log"), RotationConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.NoError(t, w.Close())
}
