package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/syncbench/pkg/syncbench/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    logging.Level
		wantErr bool
	}{
		{input: "debug", want: logging.LevelDebug},
		{input: "INFO", want: logging.LevelInfo},
		{input: "", want: logging.LevelInfo},
		{input: "warning", want: logging.LevelWarn},
		{input: "error", want: logging.LevelError},
		{input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, logging.ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Tests in this file share the package-level logging state and must not
// run in parallel.

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "syncbench.log")

	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: path}))
	t.Cleanup(func() { _ = logging.Close() })

	logger := logging.Get("rsync")
	logger.Info("transfer finished", "step", "64k")
	logger.Debug("hidden at info level")

	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "transfer finished")
	assert.Contains(t, string(data), "64k")
	assert.NotContains(t, string(data), "hidden at info level")
}

func TestInit_ComponentOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncbench.log")

	require.NoError(t, logging.Init(logging.Config{
		Level:      "warn",
		Path:       path,
		Components: map[string]string{"sampler": "debug"},
	}))
	t.Cleanup(func() { _ = logging.Close() })

	logging.Get("sampler").Debug("sampler detail")
	logging.Get("bench").Info("bench detail")
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sampler detail")
	assert.NotContains(t, string(data), "bench detail")
}

func TestInit_Console(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "syncbench.log")

	require.NoError(t, logging.Init(logging.Config{
		Level:        "debug",
		Path:         path,
		ConsoleLevel: "warn",
		Console:      &console,
	}))
	t.Cleanup(func() { _ = logging.Close() })

	logger := logging.Get("cli")
	logger.Info("quiet on console")
	logger.Warn("loud on console")

	assert.Contains(t, console.String(), "loud on console")
	assert.NotContains(t, console.String(), "quiet on console")
}

func TestInit_InvalidLevel(t *testing.T) {
	err := logging.Init(logging.Config{Level: "verbose", Path: filepath.Join(t.TempDir(), "x.log")})
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)
}

func TestGet_BeforeInitDiscards(t *testing.T) {
	require.NoError(t, logging.Close())

	logger := logging.Get("generate")
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Error("nowhere") })
}

func TestLogger_With(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncbench.log")
	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: path}))
	t.Cleanup(func() { _ = logging.Close() })

	logging.Get("bench").With("mode", "delta").Info("round started")
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mode=delta")
}

func TestInit_RebuildsEarlierLoggers(t *testing.T) {
	require.NoError(t, logging.Close())
	early := logging.Get("sampler")

	path := filepath.Join(t.TempDir(), "syncbench.log")
	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: path}))
	t.Cleanup(func() { _ = logging.Close() })

	early.Info("sampling started")
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sampling started")
}
