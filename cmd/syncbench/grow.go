package main

import (
	"fmt"
	"strconv"

	"github.com/jamesainslie/syncbench/pkg/syncbench/du"
	"github.com/jamesainslie/syncbench/pkg/syncbench/generate"
	"github.com/jamesainslie/syncbench/pkg/syncbench/history"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var growCmd = &cobra.Command{
	Use:   "grow <dir>",
	Short: "Grow every file under a directory by a percentage",
	Long: `Append text to every regular file under dir until it is at least
percent larger. The appended lines carry --index so successive rounds
produce distinct content.

Examples:
  syncbench grow ./data/64k                 # +10%, index 1
  syncbench grow ./data --percent 25 -i 3`,
	Args: cobra.ExactArgs(1),
	RunE: runGrow,
}

var growIndex int

func init() {
	growCmd.Flags().Float64("percent", 0, "growth per file in percent")
	growCmd.Flags().IntVarP(&growIndex, "index", "i", 1, "round index written into the appended lines")
	_ = viper.BindPFlag("bench.grow_percent", growCmd.Flags().Lookup("percent"))

	rootCmd.AddCommand(growCmd)
}

func runGrow(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := args[0]
	percent := cfg.Bench.GrowPercent

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	run := newRun(history.KindGrow, map[string]string{
		"dir":     dir,
		"percent": strconv.FormatFloat(percent, 'g', -1, 64),
		"index":   strconv.Itoa(growIndex),
	})
	defer func() { recordRun(cfg, run, err) }()

	results, err := generate.Grow(ctx, dir, percent, growIndex)
	if err != nil {
		return fmt.Errorf("failed to grow %s: %w", dir, err)
	}

	var before, after int64
	for _, r := range results {
		printVerbose("%s: %s -> %s", r.Path, du.Human(r.Before), du.Human(r.After))
		before += r.Before
		after += r.After
	}
	run.Artifacts = []string{dir}

	printInfo("Grew %d files by %g%%: %s -> %s", len(results), percent, du.Human(before), du.Human(after))
	return nil
}
