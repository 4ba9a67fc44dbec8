package bench

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/syncbench/pkg/syncbench/generate"
	"github.com/jamesainslie/syncbench/pkg/syncbench/rsync"
	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

type fakeRunner struct {
	cmds  []rsync.Command
	exits []int
	err   error
}

func (f *fakeRunner) Run(_ context.Context, cmd rsync.Command, _ io.Writer) (rsync.Result, error) {
	if f.err != nil {
		return rsync.Result{}, f.err
	}
	code := 0
	if i := len(f.cmds); i < len(f.exits) {
		code = f.exits[i]
	}
	f.cmds = append(f.cmds, cmd)
	return rsync.Result{Args: cmd.Args(), Elapsed: 250 * time.Millisecond, ExitCode: code}, nil
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func ladderTree(t *testing.T) (string, []generate.Step) {
	t.Helper()
	root := t.TempDir()
	l := &generate.Ladder{Root: root, Count: 2, Start: 1, Factor: 2, Steps: 3, Style: generate.StyleK, Seed: 1}
	_, err := l.Generate(context.Background())
	require.NoError(t, err)
	return root, generate.Steps(1, 2, 3, generate.StyleK)
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"full", "DELTA", "recovery"} {
		_, err := ParseMode(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseMode("strategy")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "file_size_sync_test_full.csv", TableName(ModeFull, 3))
	assert.Equal(t, "file_size_sync_test_delta_2.csv", TableName(ModeDelta, 2))
	assert.Equal(t, "file_size_sync_test_recovery_1.csv", TableName(ModeRecovery, 1))
}

func TestSuite_Full(t *testing.T) {
	root, steps := ladderTree(t)
	results := t.TempDir()
	runner := &fakeRunner{exits: []int{0, 23, 0}}

	s := &Suite{
		Mode:       ModeFull,
		LocalRoot:  root,
		Remote:     "rsync_backup@host::backup/file_size_test/",
		Steps:      steps,
		Version:    "2023-07-25-22:25:00",
		Rsync:      rsync.Options{PasswordFile: "/rsync.password", Port: 873},
		Runner:     runner,
		ResultsDir: results,
	}

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Transfers())
	assert.Equal(t, 1, report.Failures())
	require.Len(t, report.Tables, 1)

	first := runner.cmds[0].Options
	assert.Equal(t, filepath.Join(root, "1k")+"/", first.Source)
	assert.Equal(t, "rsync_backup@host::backup/file_size_test/1k/", first.Destination)
	assert.Equal(t, "2023-07-25-22:25:00", first.BackupVersion)
	assert.Empty(t, first.RecoveryVersion)

	records := readCSV(t, filepath.Join(results, "file_size_sync_test_full.csv"))
	require.Len(t, records, 4)
	assert.Equal(t, types.TransferHeader, records[0])
	assert.Equal(t, "0.250000", records[1][0])
	assert.Equal(t, types.FormatSize(2*generate.UnitsSize(1)), records[1][1])
	assert.Equal(t, types.FormatSize(2*generate.UnitsSize(4)), records[3][1])
}

func TestSuite_DeltaGrowsAndVersionsRounds(t *testing.T) {
	root, steps := ladderTree(t)
	results := t.TempDir()
	runner := &fakeRunner{}

	before := fileSize(t, filepath.Join(root, "1k", "file_0.txt"))

	s := &Suite{
		Mode:        ModeDelta,
		LocalRoot:   root,
		Remote:      "host::backup",
		Steps:       steps,
		Rounds:      2,
		GrowPercent: 10,
		Version:     "2023-07-25-23:00:00",
		VersionStep: 10 * time.Minute,
		Runner:      runner,
		ResultsDir:  results,
	}

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Tables, 2)
	assert.Len(t, runner.cmds, 6)
	assert.Equal(t, "2023-07-25-23:10:00", runner.cmds[0].Options.BackupVersion)
	assert.Equal(t, "2023-07-25-23:20:00", runner.cmds[3].Options.BackupVersion)

	after := fileSize(t, filepath.Join(root, "1k", "file_0.txt"))
	assert.GreaterOrEqual(t, after, generate.GrowTarget(generate.GrowTarget(before, 10), 10))

	for round := 1; round <= 2; round++ {
		records := readCSV(t, filepath.Join(results, TableName(ModeDelta, round)))
		assert.Len(t, records, 4)
	}

	data, err := os.ReadFile(filepath.Join(root, "2k", "file_1.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "*2*")
}

func TestSuite_Recovery(t *testing.T) {
	root, steps := ladderTree(t)
	results := t.TempDir()
	runner := &fakeRunner{}
	var measured []string

	s := &Suite{
		Mode:        ModeRecovery,
		LocalRoot:   root,
		Remote:      "host::backup/file_size_test",
		Steps:       steps[:1],
		Rounds:      3,
		Version:     "2023-07-26-00:00:00",
		VersionStep: 10 * time.Minute,
		Runner:      runner,
		ResultsDir:  results,
		Measure: func(_ context.Context, dir string) (int64, error) {
			measured = append(measured, dir)
			return 1024, nil
		},
	}

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Artifacts, 3)

	opts := runner.cmds[2].Options
	assert.Equal(t, "host::backup/file_size_test/1k/", opts.Source)
	assert.Equal(t, filepath.Join(root, "1k")+"/", opts.Destination)
	assert.Equal(t, []string{rsync.RecoveryExclude}, opts.Excludes)
	assert.Equal(t, "2023-07-26-00:30:00", opts.RecoveryVersion)
	assert.Empty(t, opts.BackupVersion)
	assert.Equal(t, filepath.Join(root, "1k"), measured[0])

	// One table per round, none overwritten.
	for round := 1; round <= 3; round++ {
		assert.FileExists(t, filepath.Join(results, TableName(ModeRecovery, round)))
	}
}

func TestSuite_RunnerErrorAborts(t *testing.T) {
	root, steps := ladderTree(t)
	s := &Suite{
		Mode:       ModeFull,
		LocalRoot:  root,
		Remote:     "host::backup",
		Steps:      steps,
		Runner:     &fakeRunner{err: errors.New("exec: rsync not found")},
		ResultsDir: t.TempDir(),
	}

	_, err := s.Run(context.Background())
	assert.Error(t, err)
}

func TestSuite_Validate(t *testing.T) {
	s := &Suite{Mode: "sideways", LocalRoot: "a", Remote: "b"}
	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrUnknownMode)

	s = &Suite{Mode: ModeFull, LocalRoot: "a", Remote: "b", Runner: &fakeRunner{}, ResultsDir: "r"}
	_, err = s.Run(context.Background())
	assert.Error(t, err)
}

func TestStrategy_AlternatesBackupTypes(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "test1")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 1000)), 0o644))

	runner := &fakeRunner{}
	var pauses int
	s := &Strategy{
		Root:          root,
		Remote:        "rsync_backup@host::backup/func_test2/",
		RoundsPerType: 2,
		VersionNum:    3,
		BaseVersion:   "2023-08-18-10:25:00",
		GrowPercent:   10,
		Pause:         time.Second,
		Runner:        runner,
		ResultsDir:    t.TempDir(),
		sleep: func(context.Context, time.Duration) error {
			pauses++
			return nil
		},
	}

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, runner.cmds, 4)
	assert.Equal(t, 4, pauses)

	wantTypes := []int{0, 0, 1, 1}
	wantVersions := []string{
		"2023-08-18-10:25:00",
		"2023-08-18-11:25:00",
		"2023-08-18-12:25:00",
		"2023-08-18-13:25:00",
	}
	for i, cmd := range runner.cmds {
		require.NotNil(t, cmd.Options.BackupType)
		assert.Equal(t, wantTypes[i], *cmd.Options.BackupType)
		assert.Equal(t, 3, *cmd.Options.BackupVersionNum)
		assert.Equal(t, wantVersions[i], cmd.Options.BackupVersion)
		assert.Equal(t, root+"/", cmd.Options.Source)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "*4*")
	assert.NotContains(t, string(data), "*5*")

	require.Len(t, report.Tables, 1)
	assert.Len(t, report.Tables[0].Rows, 4)
	assert.Equal(t, "type1-2", report.Tables[0].Rows[3].Label)
	assert.Len(t, readCSV(t, report.Tables[0].Path), 5)
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func TestSuite_RoundsShareOneBase(t *testing.T) {
	root, steps := ladderTree(t)
	runner := &fakeRunner{}

	clock := time.Date(2023, 7, 25, 23, 0, 0, 0, time.Local)
	var reads int
	s := &Suite{
		Mode:        ModeRecovery,
		LocalRoot:   root,
		Remote:      "host::backup",
		Steps:       steps,
		Rounds:      3,
		VersionStep: 10 * time.Minute,
		Runner:      runner,
		ResultsDir:  t.TempDir(),
		now: func() time.Time {
			reads++
			clock = clock.Add(time.Minute)
			return clock
		},
	}

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reads)
	require.Len(t, runner.cmds, 9)

	want := []string{"2023-07-25-23:11:00", "2023-07-25-23:21:00", "2023-07-25-23:31:00"}
	for round, v := range want {
		for i := 0; i < len(steps); i++ {
			assert.Equal(t, v, runner.cmds[round*len(steps)+i].Options.RecoveryVersion)
		}
	}
}

func TestSuite_InvalidBaseVersion(t *testing.T) {
	root, steps := ladderTree(t)
	runner := &fakeRunner{}
	s := &Suite{
		Mode:       ModeFull,
		LocalRoot:  root,
		Remote:     "host::backup",
		Steps:      steps,
		Version:    "yesterday",
		Runner:     runner,
		ResultsDir: t.TempDir(),
	}

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid base version")
	assert.Empty(t, runner.cmds)
}

func TestCloseTable(t *testing.T) {
	tw, err := createTable(filepath.Join(t.TempDir(), "strategy.csv"))
	require.NoError(t, err)
	require.NoError(t, tw.f.Close())

	var runErr error
	closeTable(tw, &runErr)
	assert.ErrorIs(t, runErr, os.ErrClosed)

	earlier := errors.New("type 0 round 1: rsync failed")
	runErr = earlier
	closeTable(tw, &runErr)
	assert.Equal(t, earlier, runErr)

	assert.NotPanics(t, func() { closeTable(nil, &runErr) })
}
