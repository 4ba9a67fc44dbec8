package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SYNCBENCH_RSYNC_PORT.
const EnvPrefix = "SYNCBENCH"

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// RsyncConfig describes how rsync is invoked and where it sends data.
type RsyncConfig struct {
	Binary       string   `mapstructure:"binary"`
	Destination  string   `mapstructure:"destination"` // e.g. rsync_backup@172.17.0.3::backup
	PasswordFile string   `mapstructure:"password_file"`
	Port         int      `mapstructure:"port"`
	Flags        []string `mapstructure:"flags"`
	Stats        bool     `mapstructure:"stats"`
}

// ThrottleConfig wraps rsync in trickle. Rates are KB/s.
type ThrottleConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Binary   string `mapstructure:"binary"`
	Upload   int    `mapstructure:"upload"`
	Download int    `mapstructure:"download"`
}

// BackupConfig holds the opaque backup-system flags passed through to rsync.
type BackupConfig struct {
	Type        int           `mapstructure:"type"`
	VersionNum  int           `mapstructure:"version_num"`
	Version     string        `mapstructure:"version"` // empty means "now"
	VersionStep time.Duration `mapstructure:"version_step"`
}

// GenerateConfig configures the test-data ladder.
type GenerateConfig struct {
	Root       string   `mapstructure:"root"`
	Count      int      `mapstructure:"count"`
	Start      int      `mapstructure:"start"`
	Factor     int      `mapstructure:"factor"`
	Steps      int      `mapstructure:"steps"`
	Style      string   `mapstructure:"style"`
	Categories []string `mapstructure:"categories"`
}

// BenchConfig configures transfer benchmark suites.
type BenchConfig struct {
	ResultsDir  string  `mapstructure:"results_dir"`
	Rounds      int     `mapstructure:"rounds"`
	GrowPercent float64 `mapstructure:"grow_percent"`
}

// TrafficConfig configures the process traffic sampler.
type TrafficConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	LogDir   string        `mapstructure:"log_dir"`
	PlotDir  string        `mapstructure:"plot_dir"`
	Wait     time.Duration `mapstructure:"wait"`
	YMax     float64       `mapstructure:"y_max"`
}

// MonitorConfig configures the resource monitor.
type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Output   string        `mapstructure:"output"`
}

// HistoryConfig configures the run history store.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	Rsync    RsyncConfig    `mapstructure:"rsync"`
	Throttle ThrottleConfig `mapstructure:"throttle"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Generate GenerateConfig `mapstructure:"generate"`
	Bench    BenchConfig    `mapstructure:"bench"`
	Traffic  TrafficConfig  `mapstructure:"traffic"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("rsync.binary", DefaultRsyncBinary)
	v.SetDefault("rsync.destination", "")
	v.SetDefault("rsync.password_file", "")
	v.SetDefault("rsync.port", DefaultRsyncPort)
	v.SetDefault("rsync.flags", DefaultRsyncFlags)
	v.SetDefault("rsync.stats", false)

	v.SetDefault("throttle.enabled", false)
	v.SetDefault("throttle.binary", DefaultThrottleBinary)
	v.SetDefault("throttle.upload", 0)
	v.SetDefault("throttle.download", 0)

	v.SetDefault("backup.type", DefaultBackupType)
	v.SetDefault("backup.version_num", DefaultBackupVersionNum)
	v.SetDefault("backup.version", "")
	v.SetDefault("backup.version_step", DefaultVersionStep)

	v.SetDefault("generate.root", DefaultDataRoot)
	v.SetDefault("generate.count", DefaultFileCount)
	v.SetDefault("generate.start", DefaultLadderStart)
	v.SetDefault("generate.factor", DefaultLadderFactor)
	v.SetDefault("generate.steps", DefaultLadderSteps)
	v.SetDefault("generate.style", DefaultLadderStyle)
	v.SetDefault("generate.categories", []string{})

	v.SetDefault("bench.results_dir", DefaultResultsDir)
	v.SetDefault("bench.rounds", DefaultRounds)
	v.SetDefault("bench.grow_percent", DefaultGrowPercent)

	v.SetDefault("traffic.interval", DefaultTrafficInterval)
	v.SetDefault("traffic.log_dir", filepath.Join(StateDir(), "traffic", "log"))
	v.SetDefault("traffic.plot_dir", filepath.Join(StateDir(), "traffic", "plot"))
	v.SetDefault("traffic.wait", time.Duration(0))
	v.SetDefault("traffic.y_max", DefaultTrafficYMax)

	v.SetDefault("monitor.interval", DefaultMonitorInterval)
	v.SetDefault("monitor.output", "system_usage.csv")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", DefaultHistoryPath())
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"rsync":   "info",
		"sampler": "info",
		"bench":   "info",
	})
}

// Configure points v at the config search path and environment.
func Configure(v *viper.Viper) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	return nil
}

// ReadInConfig reads the config file into v. A missing file is not an error.
func ReadInConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// Load loads configuration from the config file and SYNCBENCH_ environment
// variables. Config file locations:
//   - $XDG_CONFIG_HOME/syncbench/config.yaml
//   - $HOME/.config/syncbench/config.yaml
func Load() (*Config, error) {
	v := viper.New()
	if err := Configure(v); err != nil {
		return nil, err
	}
	if err := ReadInConfig(v); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes a fully configured viper instance, including any bound
// command-line flags, into a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, p := range []*string{
		&cfg.Rsync.PasswordFile,
		&cfg.Generate.Root,
		&cfg.Bench.ResultsDir,
		&cfg.Traffic.LogDir,
		&cfg.Traffic.PlotDir,
		&cfg.History.Path,
		&cfg.Logging.Path,
	} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	return &cfg, nil
}

// ConfigDir returns $XDG_CONFIG_HOME/syncbench, or ~/.config/syncbench when
// XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "syncbench"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "syncbench"), nil
}

// ConfigPath returns the path of the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DataDir returns $XDG_DATA_HOME/syncbench for the history database.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "syncbench")
}

// StateDir returns $XDG_STATE_HOME/syncbench for logs and traffic output.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "syncbench")
}

// DefaultHistoryPath returns the default history database directory.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// WriteDefault writes a commented default config file if none exists and
// returns its path.
func WriteDefault() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigYAML()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}

	return path, nil
}

func defaultConfigYAML() string {
	return fmt.Sprintf(`# syncbench configuration

rsync:
  binary: %s
  # Remote module, e.g. rsync_backup@172.17.0.3::backup
  destination: ""
  password_file: ""
  port: %d
  flags: ["-av"]
  # Pass --stats to rsync
  stats: false

# Wrap rsync in trickle (rates in KB/s)
throttle:
  enabled: false
  binary: %s
  upload: 0
  download: 0

# Flags understood by the backup system behind rsync; passed through verbatim
backup:
  type: %d
  version_num: %d
  # Empty means the current time, formatted 2006-01-02-15:04:05
  version: ""
  version_step: %s

generate:
  root: %s
  count: %d
  start: %d
  factor: %d
  steps: %d
  # "k" names step directories 4k, "unit" names them 4KB / 2MB
  style: %s
  categories: []

bench:
  results_dir: %s
  rounds: %d
  grow_percent: %g

traffic:
  interval: %s
  wait: 0s
  y_max: %g

monitor:
  interval: %s
  output: system_usage.csv

history:
  enabled: true
  retention_days: %d

logging:
  # debug, info, warn, error
  level: info
  # Empty means $XDG_STATE_HOME/syncbench/syncbench.log
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30
    max_backups: 5
    daily: true
  components:
    rsync: info
    sampler: info
    bench: info
`,
		DefaultRsyncBinary, DefaultRsyncPort, DefaultThrottleBinary,
		DefaultBackupType, DefaultBackupVersionNum, DefaultVersionStep,
		DefaultDataRoot, DefaultFileCount, DefaultLadderStart, DefaultLadderFactor, DefaultLadderSteps, DefaultLadderStyle,
		DefaultResultsDir, DefaultRounds, DefaultGrowPercent,
		DefaultTrafficInterval, DefaultTrafficYMax,
		DefaultMonitorInterval,
		DefaultRetentionDays,
	)
}
