package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultRsyncBinary, cfg.Rsync.Binary)
	assert.Equal(t, DefaultRsyncPort, cfg.Rsync.Port)
	assert.Equal(t, DefaultRsyncFlags, cfg.Rsync.Flags)
	assert.False(t, cfg.Throttle.Enabled)
	assert.Equal(t, DefaultThrottleBinary, cfg.Throttle.Binary)
	assert.Equal(t, DefaultBackupVersionNum, cfg.Backup.VersionNum)
	assert.Equal(t, DefaultVersionStep, cfg.Backup.VersionStep)
	assert.Equal(t, DefaultFileCount, cfg.Generate.Count)
	assert.Equal(t, DefaultLadderSteps, cfg.Generate.Steps)
	assert.Equal(t, DefaultRounds, cfg.Bench.Rounds)
	assert.InDelta(t, DefaultGrowPercent, cfg.Bench.GrowPercent, 1e-9)
	assert.Equal(t, DefaultTrafficInterval, cfg.Traffic.Interval)
	assert.Equal(t, DefaultMonitorInterval, cfg.Monitor.Interval)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, DefaultRetentionDays, cfg.History.RetentionDays)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromFile(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "syncbench")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	content := `
rsync:
  destination: rsync_backup@172.17.0.3::backup
  password_file: /rsync.passwd
  port: 874
  flags: ["-a"]
  stats: true
throttle:
  enabled: true
  upload: 50
  download: 50
backup:
  type: 1
  version_num: 3
  version: "2024-01-05-02:00:00"
  version_step: 1h
generate:
  root: ~/data
  style: unit
  categories: [fibre, micro, ray]
traffic:
  interval: 500ms
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "rsync_backup@172.17.0.3::backup", cfg.Rsync.Destination)
	assert.Equal(t, "/rsync.passwd", cfg.Rsync.PasswordFile)
	assert.Equal(t, 874, cfg.Rsync.Port)
	assert.Equal(t, []string{"-a"}, cfg.Rsync.Flags)
	assert.True(t, cfg.Rsync.Stats)
	assert.True(t, cfg.Throttle.Enabled)
	assert.Equal(t, 50, cfg.Throttle.Upload)
	assert.Equal(t, 1, cfg.Backup.Type)
	assert.Equal(t, 3, cfg.Backup.VersionNum)
	assert.Equal(t, "2024-01-05-02:00:00", cfg.Backup.Version)
	assert.Equal(t, time.Hour, cfg.Backup.VersionStep)
	assert.Equal(t, filepath.Join(home, "data"), cfg.Generate.Root)
	assert.Equal(t, "unit", cfg.Generate.Style)
	assert.Equal(t, []string{"fibre", "micro", "ray"}, cfg.Generate.Categories)
	assert.Equal(t, 500*time.Millisecond, cfg.Traffic.Interval)
}

func TestLoad_XDGConfigHome(t *testing.T) {
	isolate(t)
	xdgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdgHome)

	dir := filepath.Join(xdgHome, "syncbench")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("rsync:\n  port: 9999\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Rsync.Port)
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("SYNCBENCH_RSYNC_PORT", "874")
	t.Setenv("SYNCBENCH_BACKUP_VERSION", "2023-08-18-10:25:00")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 874, cfg.Rsync.Port)
	assert.Equal(t, "2023-08-18-10:25:00", cfg.Backup.Version)
}

func TestLoad_InvalidYAML(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "syncbench")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("rsync: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	home := isolate(t)

	path, err := WriteDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "syncbench", "config.yaml"), path)

	// The written file must load back to the defaults.
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultRsyncPort, cfg.Rsync.Port)
	assert.Equal(t, DefaultVersionStep, cfg.Backup.VersionStep)

	// A second call leaves the existing file alone.
	require.NoError(t, os.WriteFile(path, []byte("rsync:\n  port: 1\n"), 0o644))
	_, err = WriteDefault()
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rsync:\n  port: 1\n", string(data))
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)

	got, err := ExpandPath("~/backup_test_data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "backup_test_data"), got)

	got, err = ExpandPath("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}
