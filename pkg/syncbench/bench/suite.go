// Package bench times rsync transfers across a size ladder and records the
// results as CSV tables.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/du"
	"github.com/jamesainslie/syncbench/pkg/syncbench/generate"
	"github.com/jamesainslie/syncbench/pkg/syncbench/logging"
	"github.com/jamesainslie/syncbench/pkg/syncbench/rsync"
	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

var logger = logging.Get("bench")

// Mode selects what a suite measures.
type Mode string

const (
	// ModeFull pushes every ladder step once.
	ModeFull Mode = "full"
	// ModeDelta grows the tree and pushes it again, once per round.
	ModeDelta Mode = "delta"
	// ModeRecovery pulls every ladder step back, once per round.
	ModeRecovery Mode = "recovery"
	// ModeStrategy alternates backup types over a growing tree.
	ModeStrategy Mode = "strategy"
)

// ErrUnknownMode is returned for an unrecognized suite mode.
var ErrUnknownMode = errors.New("unknown benchmark mode")

// ParseMode parses a suite mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeFull, ModeDelta, ModeRecovery:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// TableName returns the CSV file name for a mode and round. Full runs have
// a single round and ignore it.
func TableName(mode Mode, round int) string {
	if mode == ModeFull {
		return "file_size_sync_test_full.csv"
	}
	return fmt.Sprintf("file_size_sync_test_%s_%d.csv", mode, round)
}

// MeasureFunc returns the size of a local tree.
type MeasureFunc func(ctx context.Context, dir string) (int64, error)

func duSize(ctx context.Context, dir string) (int64, error) {
	u, err := du.Size(ctx, dir)
	return u.Bytes, err
}

// Suite runs one benchmark mode over a ladder of step directories.
type Suite struct {
	Mode      Mode
	LocalRoot string
	// Remote is the rsync location that mirrors LocalRoot, e.g.
	// "user@host::backup/file_size_test".
	Remote string
	Steps  []generate.Step

	Rounds      int
	GrowPercent float64

	// Version is the base backup version. Round r uses Version plus r
	// VersionSteps. Empty means now.
	Version     string
	VersionStep time.Duration

	// Rsync holds the connection settings shared by every transfer.
	Rsync    rsync.Options
	Throttle rsync.Throttle
	Runner   rsync.Runner

	ResultsDir string
	// Output receives rsync's stdout.
	Output io.Writer

	Measure MeasureFunc

	now func() time.Time
}

func (s *Suite) validate() error {
	if _, err := ParseMode(string(s.Mode)); err != nil {
		return err
	}
	if s.LocalRoot == "" || s.Remote == "" {
		return errors.New("local root and remote are required")
	}
	if len(s.Steps) == 0 {
		return errors.New("no ladder steps")
	}
	if s.Runner == nil {
		return errors.New("no runner")
	}
	if s.ResultsDir == "" {
		return errors.New("results directory is required")
	}
	return nil
}

// baseVersion returns the time round versions are derived from. It is read
// once per run so every round shares the same base.
func (s *Suite) baseVersion() (time.Time, error) {
	if s.Version == "" {
		if s.now != nil {
			return s.now(), nil
		}
		return time.Now(), nil
	}
	t, err := rsync.ParseVersion(s.Version)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid base version %q: %w", s.Version, err)
	}
	return t, nil
}

// versionFor returns the backup version of a round.
func (s *Suite) versionFor(base time.Time, round int) string {
	return rsync.VersionString(base.Add(time.Duration(round) * s.VersionStep))
}

// Run executes the suite. A transfer that exits non-zero is recorded and
// the suite continues; only local failures abort it.
func (s *Suite) Run(ctx context.Context) (*Report, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if s.Measure == nil {
		s.Measure = duSize
	}

	base, err := s.baseVersion()
	if err != nil {
		return nil, err
	}

	report := &Report{Mode: s.Mode, Started: time.Now()}
	defer func() { report.Elapsed = time.Since(report.Started) }()

	if s.Mode == ModeFull {
		return report, s.runTable(ctx, report, 0, s.versionFor(base, 0))
	}

	rounds := s.Rounds
	if rounds <= 0 {
		rounds = 1
	}
	for round := 1; round <= rounds; round++ {
		if s.Mode == ModeDelta {
			if _, err := generate.Grow(ctx, s.LocalRoot, s.GrowPercent, round); err != nil {
				return report, err
			}
		}

		if err := s.runTable(ctx, report, round, s.versionFor(base, round)); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (s *Suite) runTable(ctx context.Context, report *Report, round int, version string) error {
	path := filepath.Join(s.ResultsDir, TableName(s.Mode, round))
	tw, err := createTable(path)
	if err != nil {
		return err
	}
	report.Artifacts = append(report.Artifacts, path)

	table := Table{Name: strings.TrimSuffix(filepath.Base(path), ".csv"), Path: path}
	logger.Info("starting table", "mode", s.Mode, "round", round, "version", version, "path", path)

	for _, step := range s.Steps {
		local := filepath.Join(s.LocalRoot, step.Name)
		remote := strings.TrimRight(s.Remote, "/") + "/" + step.Name + "/"

		opts := s.Rsync
		opts.Excludes = append([]string(nil), s.Rsync.Excludes...)
		if s.Mode == ModeRecovery {
			opts.Source, opts.Destination = remote, local+"/"
			opts.Excludes = append(opts.Excludes, rsync.RecoveryExclude)
			opts.RecoveryVersion = version
		} else {
			opts.Source, opts.Destination = local+"/", remote
			opts.BackupVersion = version
		}

		res, err := s.Runner.Run(ctx, rsync.Command{Options: opts, Throttle: s.Throttle}, s.Output)
		if err != nil {
			_ = tw.Close()
			return fmt.Errorf("transfer %s: %w", step.Name, err)
		}
		report.ExitCodes = append(report.ExitCodes, res.ExitCode)

		size, err := s.Measure(ctx, local)
		if err != nil {
			_ = tw.Close()
			return fmt.Errorf("measuring %s: %w", local, err)
		}

		row := types.TransferRow{Label: step.Name, RunTime: res.Elapsed, SizeBytes: size, ExitCode: res.ExitCode}
		table.Rows = append(table.Rows, row)
		if err := tw.write(row.Record()); err != nil {
			_ = tw.Close()
			return err
		}
	}

	report.Tables = append(report.Tables, table)
	return tw.Close()
}
