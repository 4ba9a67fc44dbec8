package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/du"
	"github.com/jamesainslie/syncbench/pkg/syncbench/history"
	"github.com/jamesainslie/syncbench/pkg/syncbench/plot"
	"github.com/jamesainslie/syncbench/pkg/syncbench/sampler"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var trafficCmd = &cobra.Command{
	Use:   "traffic <command>",
	Short: "Log network throughput while a process runs",
	Long: `Find the running process whose command line contains <command> and log
host network throughput once per interval until it exits. Each line reads:

  [ S.S - E.E sec] sent X.XX MB, up_bandwidth Y.YYYY MB/s, recv X.XX MB, down_bandwidth Y.YYYY MB/s

When the process exits the log is plotted to PNG.

Examples:
  syncbench traffic "python3 micro_backup.py"
  syncbench traffic "rsync --stats" --wait 30s --interval 500ms`,
	Args: cobra.ExactArgs(1),
	RunE: runTraffic,
}

var trafficNoPlot bool

func init() {
	trafficCmd.Flags().Duration("wait", 0, "keep looking for the process this long")
	trafficCmd.Flags().Duration("interval", 0, "sampling interval")
	trafficCmd.Flags().Float64("y-max", 0, "upper bandwidth limit of the plot in MB/s")
	trafficCmd.Flags().BoolVar(&trafficNoPlot, "no-plot", false, "skip the PNG plot")

	_ = viper.BindPFlag("traffic.wait", trafficCmd.Flags().Lookup("wait"))
	_ = viper.BindPFlag("traffic.interval", trafficCmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("traffic.y_max", trafficCmd.Flags().Lookup("y-max"))

	rootCmd.AddCommand(trafficCmd)
}

func runTraffic(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	pid, err := sampler.FindProcess(ctx, sampler.HostProcesses{}, args[0], cfg.Traffic.Wait)
	switch {
	case errors.Is(err, sampler.ErrProcessNotFound):
		fmt.Println("Process not found")
		logger.Debug("process lookup failed", "error", err)
		return errReported
	case errors.Is(err, sampler.ErrProcessTable):
		fmt.Println("Error executing ps")
		logger.Error("process lookup failed", "error", err)
		return errReported
	case err != nil:
		return err
	}
	fmt.Printf("Process found, pid: %d\n", pid)

	started := time.Now()
	if err := os.MkdirAll(cfg.Traffic.LogDir, 0o755); err != nil {
		return fmt.Errorf("failed to create traffic log directory: %w", err)
	}
	logPath := filepath.Join(cfg.Traffic.LogDir, sampler.LogName(started))

	run := newRun(history.KindTraffic, map[string]string{
		"command":  args[0],
		"pid":      fmt.Sprint(pid),
		"interval": cfg.Traffic.Interval.String(),
	})
	defer func() { recordRun(cfg, run, err) }()

	totals, err := sampleTraffic(ctx, sampler.PID(pid), cfg.Traffic.Interval, logPath)
	run.Artifacts = append(run.Artifacts, logPath)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	printInfo("Process %d finished: %d samples, sent %s, received %s", pid, totals.Samples,
		du.Human(int64(totals.Sent)), du.Human(int64(totals.Recv)))

	if trafficNoPlot || totals.Samples == 0 {
		return nil
	}
	pngPath := filepath.Join(cfg.Traffic.PlotDir, plot.PlotName(logPath))
	if err := plotTrafficLog(logPath, pngPath, cfg.Traffic.YMax); err != nil {
		return err
	}
	run.Artifacts = append(run.Artifacts, pngPath)
	printInfo("Plot written to %s", pngPath)
	return nil
}

// sampleTraffic runs the sampler into a freshly created log file.
func sampleTraffic(ctx context.Context, alive sampler.Liveness, interval time.Duration, logPath string) (sampler.Totals, error) {
	f, err := os.Create(logPath)
	if err != nil {
		return sampler.Totals{}, fmt.Errorf("failed to create traffic log: %w", err)
	}
	defer f.Close()

	var console io.Writer = os.Stdout
	if getQuiet() {
		console = nil
	}

	t := &sampler.Traffic{
		Counters: sampler.HostCounters{},
		Alive:    alive,
		Interval: interval,
		Log:      bufio.NewWriter(f),
		Console:  console,
	}
	totals, runErr := t.Run(ctx)
	if err := f.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close traffic log: %w", err)
	}
	return totals, runErr
}
