package main

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/du"
	"github.com/jamesainslie/syncbench/pkg/syncbench/generate"
	"github.com/jamesainslie/syncbench/pkg/syncbench/history"
	"github.com/jamesainslie/syncbench/pkg/syncbench/rsync"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate test data",
	Long: `Generate test data for transfer benchmarks.

  fixed    random alphanumeric files on a geometric size ladder
  content  numbered text files updated in rounds, optionally synced after each`,
}

var genFixedCmd = &cobra.Command{
	Use:   "fixed",
	Short: "Generate a size ladder of random files",
	Long: `Generate COUNT random files per ladder step under the data root.

One unit is 16 lines of 64 random alphanumeric characters (1040 bytes).
Step i holds files of start*factor^i units, in a directory named "<n>k"
(style k) or "<n>KB"/"<n>MB" (style unit).

Examples:
  syncbench gen fixed                               # 20 files x 15 steps, 1k..16384k
  syncbench gen fixed --steps 8 --style unit        # 1KB..128KB
  syncbench gen fixed --category fibre,micro,ray    # one ladder per category`,
	Args: cobra.NoArgs,
	RunE: runGenFixed,
}

var genContentCmd = &cobra.Command{
	Use:   "content [dir]",
	Short: "Generate numbered text files in update rounds",
	Long: `Write test1..test5 into dir, dir/subdir and dir/subdir/subdir. Each file
is written in several updates of numbered lines.

With --sync, every update is pushed to the destination with
--backup_version set to the current time, followed by --pause.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenContent,
}

var (
	genSeed        uint64
	contentUpdates int
	contentLines   int
	contentSync    bool
	contentRemote  string
	contentPause   time.Duration
)

func init() {
	genFixedCmd.Flags().Int("count", 0, "files per ladder step")
	genFixedCmd.Flags().Int("start", 0, "smallest step in units")
	genFixedCmd.Flags().Int("factor", 0, "size multiplier between steps")
	genFixedCmd.Flags().Int("steps", 0, "number of ladder steps")
	genFixedCmd.Flags().String("style", "", "directory naming style (k, unit)")
	genFixedCmd.Flags().StringSlice("category", nil, "category subtrees, e.g. fibre,micro,ray")
	genFixedCmd.Flags().Uint64Var(&genSeed, "seed", 0, "random seed (0 = time based)")

	_ = viper.BindPFlag("generate.count", genFixedCmd.Flags().Lookup("count"))
	_ = viper.BindPFlag("generate.start", genFixedCmd.Flags().Lookup("start"))
	_ = viper.BindPFlag("generate.factor", genFixedCmd.Flags().Lookup("factor"))
	_ = viper.BindPFlag("generate.steps", genFixedCmd.Flags().Lookup("steps"))
	_ = viper.BindPFlag("generate.style", genFixedCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("generate.categories", genFixedCmd.Flags().Lookup("category"))

	genContentCmd.Flags().IntVar(&contentUpdates, "updates", generate.DefaultUpdates, "updates per file")
	genContentCmd.Flags().IntVar(&contentLines, "lines", generate.DefaultLinesPerUpdate, "lines per update")
	genContentCmd.Flags().BoolVar(&contentSync, "sync", false, "rsync the directory after every update")
	genContentCmd.Flags().StringVar(&contentRemote, "remote", "func_test", "path under the destination to sync into")
	genContentCmd.Flags().DurationVar(&contentPause, "pause", 3*time.Second, "pause after each sync")

	genCmd.AddCommand(genFixedCmd)
	genCmd.AddCommand(genContentCmd)
	rootCmd.AddCommand(genCmd)
}

func runGenFixed(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	style, err := generate.ParseStyle(cfg.Generate.Style)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	ladder := &generate.Ladder{
		Root:       cfg.Generate.Root,
		Categories: cfg.Generate.Categories,
		Count:      cfg.Generate.Count,
		Start:      cfg.Generate.Start,
		Factor:     cfg.Generate.Factor,
		Steps:      cfg.Generate.Steps,
		Style:      style,
		Seed:       genSeed,
		OnStep: func(dir string, step generate.Step) {
			printInfo("Generating %s (%d units per file)", dir, step.Units)
		},
	}

	run := newRun(history.KindGenerate, map[string]string{
		"mode":   "fixed",
		"root":   ladder.Root,
		"count":  strconv.Itoa(ladder.Count),
		"start":  strconv.Itoa(ladder.Start),
		"factor": strconv.Itoa(ladder.Factor),
		"steps":  strconv.Itoa(ladder.Steps),
		"style":  string(style),
	})
	defer func() { recordRun(cfg, run, err) }()

	files, err := ladder.Generate(ctx)
	var total int64
	for _, f := range files {
		total += f.Size
	}
	run.Artifacts = []string{ladder.Root}
	if err != nil {
		return fmt.Errorf("generation stopped after %d files: %w", len(files), err)
	}

	printInfo("Generated %d files (%s) under %s", len(files), du.Human(total), ladder.Root)
	return nil
}

func runGenContent(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := filepath.Join(cfg.Generate.Root, "func_test")
	if len(args) == 1 {
		dir = args[0]
	}

	var dest string
	if contentSync {
		if dest, err = requireDestination(cfg); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	opts := rsyncOptions(cfg)
	opts.Source = strings.TrimSuffix(dir, "/") + "/"
	opts.Destination = path.Join(dest, contentRemote) + "/"
	runner := rsync.ExecRunner{}

	run := newRun(history.KindGenerate, map[string]string{
		"mode":    "content",
		"dir":     dir,
		"updates": strconv.Itoa(contentUpdates),
		"lines":   strconv.Itoa(contentLines),
		"sync":    strconv.FormatBool(contentSync),
	})
	defer func() { recordRun(cfg, run, err) }()

	content := &generate.Content{
		Root:           dir,
		Updates:        contentUpdates,
		LinesPerUpdate: contentLines,
		AfterUpdate: func(ctx context.Context, u generate.Update) error {
			printInfo("Update %d of test%d written (%d lines)", u.Round, u.Number, u.Lines)
			if !contentSync {
				return nil
			}

			o := opts
			o.BackupVersion = rsync.VersionString(time.Now())
			res, err := runner.Run(ctx, rsync.Command{Options: o, Throttle: rsyncThrottle(cfg)}, transferOutput())
			if err != nil {
				return err
			}
			run.ExitCodes = append(run.ExitCodes, res.ExitCode)
			printVerbose("%s (exit %d, %s)", strings.Join(res.Args, " "), res.ExitCode, res.Elapsed)

			return sleepContext(ctx, contentPause)
		},
	}

	paths, err := content.Generate(ctx)
	run.Artifacts = paths
	if err != nil {
		return err
	}

	printInfo("Generated %d content files under %s", len(paths), dir)
	return nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
