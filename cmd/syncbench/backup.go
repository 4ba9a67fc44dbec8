package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/history"
	"github.com/jamesainslie/syncbench/pkg/syncbench/rsync"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var backupCmd = &cobra.Command{
	Use:   "backup <src>...",
	Short: "Push directories to the backup destination",
	Long: `Push each source directory to <destination>/<basename>/ with the backup
flags attached. Sources are pushed one after another; a non-zero rsync exit
is reported and the next source still runs.

Examples:
  syncbench backup ./data/fibre ./data/micro ./data/ray
  syncbench backup ./data/micro --throttle --upload 50 --download 50 --log-dir ./logs
  syncbench backup ./data/8KB --backup-type 1 --version 2024-01-05-02:00:00`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBackup,
}

var backupLogDir string

func init() {
	backupCmd.Flags().Int("backup-type", 0, "value passed as --backup_type")
	backupCmd.Flags().Int("version-num", 0, "value passed as --backup_version_num")
	backupCmd.Flags().String("version", "", "value passed as --backup_version (default: now)")
	backupCmd.Flags().Bool("stats", false, "pass --stats to rsync")
	backupCmd.Flags().StringVar(&backupLogDir, "log-dir", "", "write each transfer's rsync output to <log-dir>/<name>.txt")

	_ = viper.BindPFlag("backup.type", backupCmd.Flags().Lookup("backup-type"))
	_ = viper.BindPFlag("backup.version_num", backupCmd.Flags().Lookup("version-num"))
	_ = viper.BindPFlag("backup.version", backupCmd.Flags().Lookup("version"))
	_ = viper.BindPFlag("rsync.stats", backupCmd.Flags().Lookup("stats"))

	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dest, err := requireDestination(cfg)
	if err != nil {
		return err
	}

	version := cfg.Backup.Version
	if version == "" {
		version = rsync.VersionString(time.Now())
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	run := newRun(history.KindBackup, map[string]string{
		"destination": dest,
		"sources":     strings.Join(args, ","),
		"backup_type": strconv.Itoa(cfg.Backup.Type),
		"version_num": strconv.Itoa(cfg.Backup.VersionNum),
		"version":     version,
	})
	defer func() { recordRun(cfg, run, err) }()

	if backupLogDir != "" {
		if err := os.MkdirAll(backupLogDir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	runner := rsync.ExecRunner{}
	failed := 0
	for _, src := range args {
		name := filepath.Base(filepath.Clean(src))

		opts := rsyncOptions(cfg)
		opts.Source = strings.TrimSuffix(src, "/") + "/"
		opts.Destination = path.Join(dest, name) + "/"
		opts.BackupType = rsync.Int(cfg.Backup.Type)
		opts.BackupVersionNum = rsync.Int(cfg.Backup.VersionNum)
		opts.BackupVersion = version
		c := rsync.Command{Options: opts, Throttle: rsyncThrottle(cfg)}

		printInfo("%s", strings.Join(c.Args(), " "))

		res, err := runTransfer(ctx, runner, c, name)
		if err != nil {
			return err
		}
		run.ExitCodes = append(run.ExitCodes, res.ExitCode)

		if res.OK() {
			printInfo("%s backup done in %s\n", name, res.Elapsed.Round(time.Millisecond))
		} else {
			failed++
			printInfo("%s backup exited %d after %s\n", name, res.ExitCode, res.Elapsed.Round(time.Millisecond))
		}
	}

	if failed > 0 {
		logger.Warn("backup finished with failures", "failed", failed, "total", len(args))
	}
	return nil
}

// runTransfer runs c, sending rsync's output to the per-source log file
// when --log-dir is set.
func runTransfer(ctx context.Context, runner rsync.Runner, c rsync.Command, name string) (rsync.Result, error) {
	if backupLogDir == "" {
		return runner.Run(ctx, c, transferOutput())
	}

	logPath := filepath.Join(backupLogDir, name+".txt")
	f, err := os.Create(logPath)
	if err != nil {
		return rsync.Result{}, fmt.Errorf("failed to create %s: %w", logPath, err)
	}
	defer f.Close()

	res, err := runner.Run(ctx, c, f)
	if err != nil {
		return res, err
	}
	return res, f.Close()
}
