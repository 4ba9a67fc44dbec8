package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/config"
	"github.com/jamesainslie/syncbench/pkg/syncbench/du"
	"github.com/jamesainslie/syncbench/pkg/syncbench/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded runs",
	Long: `View the history of syncbench runs.

Every command that generates data, transfers it or samples the host records
its parameters, exit codes and artifacts. Use --no-history to skip recording.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show details of a specific run",
	Long:  `Display detailed information about a specific run by its ID.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var (
	historyLimit int
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the configured history store.
func openHistory() (*history.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, cfg, nil
}

// runHistory lists recent runs.
func runHistory(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(runs) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'syncbench gen fixed' or 'syncbench bench full' to record one.")
		return nil
	}

	fmt.Printf("\n%-44s  %-9s  %-10s  %-9s  %s\n", "ID", "KIND", "ELAPSED", "FAILED", "STATUS")
	fmt.Println(strings.Repeat("-", 90))

	for _, run := range runs {
		fmt.Printf("%-44s  %-9s  %-10s  %-9s  %s\n",
			truncateString(run.ID, 44),
			run.Kind,
			run.Elapsed.Round(time.Millisecond),
			fmt.Sprintf("%d/%d", run.Failures(), len(run.ExitCodes)),
			runStatus(&run),
		)
	}

	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(runs))
	fmt.Println("Use 'syncbench history show <id>' for details on a specific entry.")

	return nil
}

func runStatus(run *history.Run) string {
	switch {
	case run.Error != "":
		return "error"
	case run.Failures() > 0:
		return "partial"
	default:
		return "ok"
	}
}

// runHistoryShow displays details of a specific run.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nRun Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", run.ID)
	fmt.Printf("Kind:       %s\n", run.Kind)
	fmt.Printf("Started:    %s\n", run.Started.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Elapsed:    %s\n", run.Elapsed.Round(time.Millisecond))
	fmt.Printf("Status:     %s\n", runStatus(run))
	fmt.Printf("Host:       %d CPUs, %s RAM\n", run.Host.CPUs, du.Human(int64(run.Host.TotalRAM)))
	if run.Error != "" {
		fmt.Printf("Error:      %s\n", run.Error)
	}

	if len(run.Params) > 0 {
		fmt.Println("\nParameters:")
		fmt.Println(strings.Repeat("-", 60))
		keys := make([]string, 0, len(run.Params))
		for k := range run.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%-14s  %s\n", k, run.Params[k])
		}
	}

	if len(run.ExitCodes) > 0 {
		fmt.Println("\nExit codes:")
		fmt.Println(strings.Repeat("-", 60))
		codes := make([]string, len(run.ExitCodes))
		for i, c := range run.ExitCodes {
			codes[i] = fmt.Sprint(c)
		}
		fmt.Println(strings.Join(codes, " "))
	}

	if len(run.Artifacts) > 0 {
		fmt.Println("\nArtifacts:")
		fmt.Println(strings.Repeat("-", 60))

		limit := min(len(run.Artifacts), 50)
		for _, a := range run.Artifacts[:limit] {
			fmt.Println(a)
		}
		if len(run.Artifacts) > limit {
			fmt.Printf("\n... and %d more\n", len(run.Artifacts)-limit)
		}
	}

	return nil
}

// runHistoryClean removes old history entries.
func runHistoryClean(cmd *cobra.Command, args []string) error {
	store, cfg, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	retentionDays := cfg.History.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	removed, err := store.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("History cleanup complete: %d entries removed.", removed)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
