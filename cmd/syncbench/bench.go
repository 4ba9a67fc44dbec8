package main

import (
	"path"
	"strconv"
	"strings"

	"github.com/jamesainslie/syncbench/pkg/syncbench/bench"
	"github.com/jamesainslie/syncbench/pkg/syncbench/generate"
	"github.com/jamesainslie/syncbench/pkg/syncbench/history"
	"github.com/jamesainslie/syncbench/pkg/syncbench/rsync"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var benchCmd = &cobra.Command{
	Use:   "bench <full|delta|recovery>",
	Short: "Time transfers of every ladder step",
	Long: `Time one rsync transfer per ladder step and write the run times and tree
sizes to CSV.

  full      push every step once          file_size_sync_test_full.csv
  delta     grow the tree, push it again  file_size_sync_test_delta_<r>.csv
  recovery  pull every step back          file_size_sync_test_recovery_<r>.csv

Round r uses the base version plus r version steps, so every round lands
in its own backup version.

Examples:
  syncbench bench full --dest rsync_backup@192.168.0.9::backup
  syncbench bench delta --rounds 3 --version 2023-07-25-23:00:00
  syncbench bench recovery -o json`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"full", "delta", "recovery"},
	RunE:      runBench,
}

var (
	benchRemote      string
	benchGrowPercent float64
)

func init() {
	benchCmd.Flags().StringVar(&benchRemote, "remote", "file_size_test", "path under the destination that mirrors the data root")
	benchCmd.Flags().Int("rounds", 0, "delta/recovery rounds")
	benchCmd.Flags().Float64Var(&benchGrowPercent, "grow-percent", 0, "growth per delta round in percent (default from config)")
	benchCmd.Flags().String("base-version", "", "base backup version (default: now)")
	benchCmd.Flags().Duration("version-step", 0, "version offset between rounds")

	_ = viper.BindPFlag("bench.rounds", benchCmd.Flags().Lookup("rounds"))
	_ = viper.BindPFlag("backup.version_step", benchCmd.Flags().Lookup("version-step"))

	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) (err error) {
	mode, err := bench.ParseMode(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dest, err := requireDestination(cfg)
	if err != nil {
		return err
	}
	style, err := generate.ParseStyle(cfg.Generate.Style)
	if err != nil {
		return err
	}

	growPercent := cfg.Bench.GrowPercent
	if cmd.Flags().Changed("grow-percent") {
		growPercent = benchGrowPercent
	}
	baseVersion := cfg.Backup.Version
	if cmd.Flags().Changed("base-version") {
		baseVersion, _ = cmd.Flags().GetString("base-version")
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	suite := &bench.Suite{
		Mode:        mode,
		LocalRoot:   cfg.Generate.Root,
		Remote:      path.Join(dest, benchRemote),
		Steps:       generate.Steps(cfg.Generate.Start, cfg.Generate.Factor, cfg.Generate.Steps, style),
		Rounds:      cfg.Bench.Rounds,
		GrowPercent: growPercent,
		Version:     baseVersion,
		VersionStep: cfg.Backup.VersionStep,
		Rsync:       rsyncOptions(cfg),
		Throttle:    rsyncThrottle(cfg),
		Runner:      rsync.ExecRunner{},
		ResultsDir:  cfg.Bench.ResultsDir,
		Output:      transferOutput(),
	}

	run := newRun(history.KindBench, map[string]string{
		"mode":         string(mode),
		"root":         suite.LocalRoot,
		"remote":       suite.Remote,
		"steps":        strconv.Itoa(len(suite.Steps)),
		"rounds":       strconv.Itoa(suite.Rounds),
		"grow_percent": strconv.FormatFloat(growPercent, 'g', -1, 64),
	})
	defer func() { recordRun(cfg, run, err) }()

	printInfo("Starting %s benchmark: %s -> %s", mode, suite.LocalRoot, suite.Remote)
	report, err := suite.Run(ctx)
	if report != nil {
		run.ExitCodes = report.ExitCodes
		run.Artifacts = report.Artifacts
	}
	if err != nil {
		return err
	}

	printVerbose("Wrote %s", strings.Join(report.Artifacts, ", "))
	return renderReport(report)
}
