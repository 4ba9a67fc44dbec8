package main

import (
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/bench"
	"github.com/jamesainslie/syncbench/pkg/syncbench/history"
	"github.com/jamesainslie/syncbench/pkg/syncbench/rsync"
	"github.com/spf13/cobra"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy [dir]",
	Short: "Alternate backup types over a growing tree",
	Long: `Grow dir and push it repeatedly, first --rounds times with the first
backup type, then --rounds times with the next, pausing between pushes. Each
push gets its own --backup_version so the remote builds a version history.

Examples:
  syncbench strategy ./data/func_test --rounds 7 --pause 1s
  syncbench strategy --types 1 --version-num 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStrategy,
}

var (
	strategyRemote      string
	strategyRounds      int
	strategyTypes       []int
	strategyPause       time.Duration
	strategyBase        string
	strategyStep        time.Duration
	strategyVersionNum  int
	strategyGrowPercent float64
)

func init() {
	strategyCmd.Flags().StringVar(&strategyRemote, "remote", "func_test2", "path under the destination")
	strategyCmd.Flags().IntVar(&strategyRounds, "rounds", 7, "pushes per backup type")
	strategyCmd.Flags().IntSliceVar(&strategyTypes, "types", []int{0, 1}, "backup types, in order")
	strategyCmd.Flags().DurationVar(&strategyPause, "pause", time.Second, "pause after each push")
	strategyCmd.Flags().StringVar(&strategyBase, "base-version", "", "first backup version (default: now)")
	strategyCmd.Flags().DurationVar(&strategyStep, "version-step", time.Hour, "version offset between pushes")
	strategyCmd.Flags().IntVar(&strategyVersionNum, "version-num", 0, "value passed as --backup_version_num (default from config)")
	strategyCmd.Flags().Float64Var(&strategyGrowPercent, "grow-percent", 0, "growth per push in percent (default from config)")

	rootCmd.AddCommand(strategyCmd)
}

func runStrategy(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dest, err := requireDestination(cfg)
	if err != nil {
		return err
	}

	dir := filepath.Join(cfg.Generate.Root, "func_test")
	if len(args) == 1 {
		dir = args[0]
	}
	versionNum := cfg.Backup.VersionNum
	if cmd.Flags().Changed("version-num") {
		versionNum = strategyVersionNum
	}
	growPercent := cfg.Bench.GrowPercent
	if cmd.Flags().Changed("grow-percent") {
		growPercent = strategyGrowPercent
	}
	base := strategyBase
	if base == "" {
		base = cfg.Backup.Version
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	s := &bench.Strategy{
		Root:          dir,
		Remote:        path.Join(dest, strategyRemote) + "/",
		RoundsPerType: strategyRounds,
		BackupTypes:   strategyTypes,
		VersionNum:    versionNum,
		BaseVersion:   base,
		VersionStep:   strategyStep,
		GrowPercent:   growPercent,
		Pause:         strategyPause,
		Rsync:         rsyncOptions(cfg),
		Throttle:      rsyncThrottle(cfg),
		Runner:        rsync.ExecRunner{},
		Output:        transferOutput(),
		ResultsDir:    cfg.Bench.ResultsDir,
	}

	run := newRun(history.KindStrategy, map[string]string{
		"dir":          dir,
		"remote":       s.Remote,
		"rounds":       strconv.Itoa(strategyRounds),
		"version_num":  strconv.Itoa(versionNum),
		"grow_percent": strconv.FormatFloat(growPercent, 'g', -1, 64),
	})
	defer func() { recordRun(cfg, run, err) }()

	printInfo("Starting strategy run: %s -> %s", s.Root, s.Remote)
	report, err := s.Run(ctx)
	if report != nil {
		run.ExitCodes = report.ExitCodes
		run.Artifacts = report.Artifacts
	}
	if err != nil {
		return err
	}
	return renderReport(report)
}
