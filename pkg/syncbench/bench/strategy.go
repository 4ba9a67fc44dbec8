package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/generate"
	"github.com/jamesainslie/syncbench/pkg/syncbench/rsync"
	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

// Strategy grows a tree and pushes it repeatedly, first with one backup
// type and then the next, so the remote accumulates a version history.
type Strategy struct {
	Root   string
	Remote string

	RoundsPerType int
	// BackupTypes defaults to full (0) then incremental (1).
	BackupTypes []int
	VersionNum  int

	BaseVersion string
	VersionStep time.Duration
	GrowPercent float64
	Pause       time.Duration

	Rsync    rsync.Options
	Throttle rsync.Throttle
	Runner   rsync.Runner
	Output   io.Writer

	// ResultsDir, when set, receives strategy.csv.
	ResultsDir string
	Measure    MeasureFunc

	sleep func(context.Context, time.Duration) error
}

// Run executes every round of every backup type in order.
func (s *Strategy) Run(ctx context.Context) (report *Report, err error) {
	if s.Root == "" || s.Remote == "" {
		return nil, errors.New("root and remote are required")
	}
	if s.Runner == nil {
		return nil, errors.New("no runner")
	}

	backupTypes := s.BackupTypes
	if len(backupTypes) == 0 {
		backupTypes = []int{0, 1}
	}
	rounds := s.RoundsPerType
	if rounds <= 0 {
		rounds = 1
	}
	step := s.VersionStep
	if step <= 0 {
		step = time.Hour
	}
	measure := s.Measure
	if measure == nil {
		measure = duSize
	}
	sleep := s.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	base := time.Now()
	if s.BaseVersion != "" {
		t, err := rsync.ParseVersion(s.BaseVersion)
		if err != nil {
			return nil, fmt.Errorf("invalid base version %q: %w", s.BaseVersion, err)
		}
		base = t
	}

	report = &Report{Mode: ModeStrategy, Started: time.Now()}
	defer func() { report.Elapsed = time.Since(report.Started) }()

	var tw *tableWriter
	table := Table{Name: "strategy"}
	if s.ResultsDir != "" {
		table.Path = filepath.Join(s.ResultsDir, "strategy.csv")
		if tw, err = createTable(table.Path); err != nil {
			return report, err
		}
		defer closeTable(tw, &err)
		report.Artifacts = append(report.Artifacts, table.Path)
	}

	index := 1
	for ti, bt := range backupTypes {
		for round := 0; round < rounds; round++ {
			if _, err := generate.Grow(ctx, s.Root, s.GrowPercent, index); err != nil {
				return report, err
			}

			version := rsync.VersionString(base.Add(time.Duration(ti*rounds+round) * step))
			opts := s.Rsync
			opts.Source = strings.TrimRight(s.Root, "/") + "/"
			opts.Destination = s.Remote
			opts.BackupType = rsync.Int(bt)
			if s.VersionNum > 0 {
				opts.BackupVersionNum = rsync.Int(s.VersionNum)
			}
			opts.BackupVersion = version

			logger.Info("strategy round", "type", bt, "round", round+1, "index", index, "version", version)
			res, err := s.Runner.Run(ctx, rsync.Command{Options: opts, Throttle: s.Throttle}, s.Output)
			if err != nil {
				return report, fmt.Errorf("type %d round %d: %w", bt, round+1, err)
			}
			report.ExitCodes = append(report.ExitCodes, res.ExitCode)

			size, err := measure(ctx, s.Root)
			if err != nil {
				return report, fmt.Errorf("measuring %s: %w", s.Root, err)
			}
			row := types.TransferRow{
				Label:     fmt.Sprintf("type%d-%d", bt, round+1),
				RunTime:   res.Elapsed,
				SizeBytes: size,
				ExitCode:  res.ExitCode,
			}
			table.Rows = append(table.Rows, row)
			if tw != nil {
				if err := tw.write(row.Record()); err != nil {
					return report, err
				}
			}

			index++
			if err := sleep(ctx, s.Pause); err != nil {
				return report, err
			}
		}
	}

	report.Tables = append(report.Tables, table)
	return report, nil
}

// closeTable closes tw and stores its error in err unless an earlier error
// is already there.
func closeTable(tw *tableWriter, err *error) {
	if tw == nil {
		return
	}
	if cerr := tw.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
