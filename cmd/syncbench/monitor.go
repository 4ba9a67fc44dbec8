package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/syncbench/cmd/syncbench/tui"
	"github.com/jamesainslie/syncbench/pkg/syncbench/history"
	"github.com/jamesainslie/syncbench/pkg/syncbench/sampler"
	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Record host CPU, memory and network usage to CSV",
	Long: `Sample CPU%, memory% and cumulative MB sent, writing one CSV row per
sample until you type 'e' (or 'E') and press Enter.

With --tui and an interactive terminal, a live view is shown instead; press
e, q or Ctrl+C to stop.

Examples:
  syncbench monitor                              # writes system_usage.csv
  syncbench monitor --out usage_recovery.csv
  syncbench monitor --max-samples 600 --interval 1s
  syncbench monitor --tui`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var (
	monitorMaxSamples int
	monitorTUI        bool
)

func init() {
	monitorCmd.Flags().String("out", "", "CSV output path")
	monitorCmd.Flags().Duration("interval", 0, "pause between samples")
	monitorCmd.Flags().IntVar(&monitorMaxSamples, "max-samples", 0, "stop after this many samples (0 = until quit)")
	monitorCmd.Flags().BoolVar(&monitorTUI, "tui", false, "show a live terminal view")

	_ = viper.BindPFlag("monitor.output", monitorCmd.Flags().Lookup("out"))
	_ = viper.BindPFlag("monitor.interval", monitorCmd.Flags().Lookup("interval"))

	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cfg.Monitor.Output

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer f.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	run := newRun(history.KindMonitor, map[string]string{
		"output":      out,
		"interval":    cfg.Monitor.Interval.String(),
		"max_samples": strconv.Itoa(monitorMaxSamples),
	})
	defer func() { recordRun(cfg, run, err) }()
	run.Artifacts = []string{out}

	r := &sampler.Resource{
		Source:     sampler.HostSystem{},
		Out:        f,
		Interval:   cfg.Monitor.Interval,
		MaxSamples: monitorMaxSamples,
	}

	var summary sampler.Summary
	if monitorTUI && isInteractive() {
		summary, err = monitorWithTUI(ctx, r, out)
	} else {
		if !getQuiet() {
			r.Console = os.Stdout
		}
		r.Quit = sampler.StdinQuit()
		printInfo("Sampling to %s. Type 'e' and press Enter to stop.", out)
		summary, err = r.Run(ctx)
	}
	if err != nil {
		return err
	}

	printInfo("Run time: %.3f seconds (%d samples)", summary.Elapsed.Seconds(), summary.Samples)
	return f.Close()
}

func isInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
}

// monitorWithTUI runs the sampler in the background and feeds the live view
// until either side stops.
func monitorWithTUI(ctx context.Context, r *sampler.Resource, out string) (sampler.Summary, error) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	p := tea.NewProgram(tui.NewMonitorModel(out), tea.WithAltScreen(), tea.WithContext(ctx))
	r.OnSample = func(i int, s types.ResourceSample) {
		p.Send(tui.SampleMsg{Index: i, Sample: s})
	}

	type result struct {
		summary sampler.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := r.Run(ctx)
		p.Send(tui.DoneMsg{Samples: summary.Samples, Elapsed: summary.Elapsed, Err: err})
		done <- result{summary, err}
	}()

	final, uiErr := p.Run()
	stop()
	res := <-done

	if m, ok := final.(tui.MonitorModel); ok && m.Quitting() {
		logger.Info("monitor stopped from the keyboard", "samples", m.Count())
	}

	if uiErr != nil && !isContextErr(uiErr) {
		return res.summary, fmt.Errorf("monitor view failed: %w", uiErr)
	}
	return res.summary, res.err
}

func isContextErr(err error) bool {
	return errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled)
}
