package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/config"
	"github.com/jamesainslie/syncbench/pkg/syncbench/history"
	"github.com/jamesainslie/syncbench/pkg/syncbench/logging"
	"github.com/jamesainslie/syncbench/pkg/syncbench/rsync"
	"github.com/jamesainslie/syncbench/pkg/syncbench/sysinfo"
	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logger = logging.Get("cli")

// initializeLogging is the PersistentPreRunE hook. It makes sure the XDG
// directories exist and starts file logging.
func initializeLogging(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{configDir, config.DataDir(), config.StateDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if getVerbose() {
		logCfg.Level = "debug"
		logCfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// parseRotationConfig converts the config file's rotation settings. An empty
// or invalid max_size falls back to the default.
func parseRotationConfig(cfg config.RotationConfig) logging.RotationConfig {
	maxSize := logging.DefaultRotationConfig().MaxSize
	if cfg.MaxSize != "" {
		if parsed, err := types.ParseSize(cfg.MaxSize); err == nil && parsed > 0 {
			maxSize = parsed
		}
	}

	return logging.RotationConfig{
		MaxSize:    maxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Daily:      cfg.Daily,
	}
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// rsyncOptions returns the connection settings shared by every transfer.
func rsyncOptions(cfg *config.Config) rsync.Options {
	return rsync.Options{
		Binary:       cfg.Rsync.Binary,
		PasswordFile: cfg.Rsync.PasswordFile,
		Port:         cfg.Rsync.Port,
		Flags:        cfg.Rsync.Flags,
		Stats:        cfg.Rsync.Stats,
	}
}

func rsyncThrottle(cfg *config.Config) rsync.Throttle {
	return rsync.Throttle{
		Enabled:  cfg.Throttle.Enabled,
		Binary:   cfg.Throttle.Binary,
		Upload:   cfg.Throttle.Upload,
		Download: cfg.Throttle.Download,
	}
}

// requireDestination fails early when no rsync destination is configured.
func requireDestination(cfg *config.Config) (string, error) {
	if cfg.Rsync.Destination == "" {
		return "", fmt.Errorf("no rsync destination: set --dest, rsync.destination or %s_RSYNC_DESTINATION", config.EnvPrefix)
	}
	return cfg.Rsync.Destination, nil
}

// transferOutput is where rsync's own stdout goes.
func transferOutput() io.Writer {
	if getQuiet() {
		return io.Discard
	}
	return os.Stdout
}

// newRun starts a history record for a command.
func newRun(kind history.Kind, params map[string]string) *history.Run {
	return &history.Run{
		Kind:    kind,
		Started: time.Now(),
		Params:  params,
	}
}

// recordRun stores run in the history database. Failures are logged and
// never change the command's outcome.
func recordRun(cfg *config.Config, run *history.Run, runErr error) {
	if viper.GetBool("no_history") || !cfg.History.Enabled {
		return
	}

	run.Elapsed = time.Since(run.Started)
	if runErr != nil {
		run.Error = runErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := sysinfo.Detect(ctx)
	if err != nil {
		logger.Debug("host detection incomplete", "error", err)
	}
	run.Host = history.Host{CPUs: res.CPUs, TotalRAM: res.TotalRAM}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Warn("history unavailable", "path", cfg.History.Path, "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Put(run); err != nil {
		logger.Warn("failed to record run", "error", err)
		return
	}
	printVerbose("Recorded run %s", run.ID)
}
