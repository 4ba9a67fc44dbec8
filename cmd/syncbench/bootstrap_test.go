package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/syncbench/pkg/syncbench/config"
	"github.com/jamesainslie/syncbench/pkg/syncbench/history"
	"github.com/jamesainslie/syncbench/pkg/syncbench/logging"
	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

func TestParseRotationConfig(t *testing.T) {
	tests := []struct {
		name     string
		input    config.RotationConfig
		expected logging.RotationConfig
	}{
		{
			name: "default values",
			input: config.RotationConfig{
				MaxSize:    "10MB",
				MaxAge:     30,
				MaxBackups: 5,
				Daily:      true,
			},
			expected: logging.RotationConfig{
				MaxSize:    10 * 1024 * 1024,
				MaxAge:     30,
				MaxBackups: 5,
				Daily:      true,
			},
		},
		{
			name: "gigabyte size",
			input: config.RotationConfig{
				MaxSize:    "1G",
				MaxAge:     7,
				MaxBackups: 2,
			},
			expected: logging.RotationConfig{
				MaxSize:    1024 * 1024 * 1024,
				MaxAge:     7,
				MaxBackups: 2,
			},
		},
		{
			name:  "empty size uses default",
			input: config.RotationConfig{MaxAge: 1},
			expected: logging.RotationConfig{
				MaxSize: 10 * 1024 * 1024,
				MaxAge:  1,
			},
		},
		{
			name:  "invalid size uses default",
			input: config.RotationConfig{MaxSize: "lots", Daily: true},
			expected: logging.RotationConfig{
				MaxSize: 10 * 1024 * 1024,
				Daily:   true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseRotationConfig(tt.input))
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{
		"gen", "grow", "backup", "bench", "strategy", "monitor",
		"traffic", "plot", "history", "config", "version",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRequireDestination(t *testing.T) {
	_, err := requireDestination(&config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYNCBENCH_RSYNC_DESTINATION")

	cfg := &config.Config{}
	cfg.Rsync.Destination = "rsync_backup@172.17.0.3::backup"
	dest, err := requireDestination(cfg)
	require.NoError(t, err)
	assert.Equal(t, "rsync_backup@172.17.0.3::backup", dest)
}

func TestRsyncOptionsFromConfig(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("rsync.password_file", "/rsync.passwd")
	v.Set("throttle.enabled", true)
	v.Set("throttle.upload", 50)
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	opts := rsyncOptions(cfg)
	assert.Equal(t, "rsync", opts.Binary)
	assert.Equal(t, "/rsync.passwd", opts.PasswordFile)
	assert.Equal(t, 873, opts.Port)
	assert.Equal(t, []string{"-av"}, opts.Flags)

	th := rsyncThrottle(cfg)
	assert.True(t, th.Enabled)
	assert.Equal(t, "trickle", th.Binary)
	assert.Equal(t, 50, th.Upload)
}

func TestRunStatus(t *testing.T) {
	tests := []struct {
		name string
		run  history.Run
		want string
	}{
		{name: "clean", run: history.Run{ExitCodes: []int{0, 0}}, want: "ok"},
		{name: "non-zero exit", run: history.Run{ExitCodes: []int{0, 23}}, want: "partial"},
		{name: "error", run: history.Run{Error: "boom"}, want: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runStatus(&tt.run))
		})
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "bench-2...", truncateString("bench-2024-01-05", 10))
	assert.Equal(t, "ab", truncateString("abcdef", 2))
}

func TestPlotTrafficLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "process_traffic_2024-01-05-10:00:00.txt")

	var lines []string
	for i := 0; i < 5; i++ {
		s := types.TrafficSample{
			Start:     time.Duration(i) * time.Second,
			End:       time.Duration(i+1) * time.Second,
			SentBytes: uint64(i) * uint64(types.MiB),
			RecvBytes: uint64(types.MiB) / 2,
		}
		lines = append(lines, s.Line())
	}
	require.NoError(t, os.WriteFile(logPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	pngPath := filepath.Join(dir, "plot", "traffic.png")
	require.NoError(t, plotTrafficLog(logPath, pngPath, 0))

	info, err := os.Stat(pngPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPlotTrafficLog_Malformed(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(logPath, []byte("not a traffic line\n"), 0o644))

	err := plotTrafficLog(logPath, filepath.Join(t.TempDir(), "bad.png"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestPlotTransferCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "file_size_sync_test_full.csv")
	data := "run_time,file_size\n0.5,20K\n1.25,40K\n2.0,80K\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(data), 0o644))

	pngPath := filepath.Join(dir, "full.png")
	require.NoError(t, plotTransferCSV(csvPath, pngPath, ""))

	_, err := os.Stat(pngPath)
	assert.NoError(t, err)
}
