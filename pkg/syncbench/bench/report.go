package bench

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

// Table is one result file: a sequence of timed transfers.
type Table struct {
	Name string              `json:"name" yaml:"name"`
	Path string              `json:"path,omitempty" yaml:"path,omitempty"`
	Rows []types.TransferRow `json:"rows" yaml:"rows"`
}

// Total returns the summed run time of every row.
func (t Table) Total() time.Duration {
	var d time.Duration
	for _, r := range t.Rows {
		d += r.RunTime
	}
	return d
}

// Report is the outcome of a suite or strategy run.
type Report struct {
	Mode      Mode          `json:"mode" yaml:"mode"`
	Started   time.Time     `json:"started" yaml:"started"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	Tables    []Table       `json:"tables" yaml:"tables"`
	ExitCodes []int         `json:"exit_codes" yaml:"exit_codes"`
	Artifacts []string      `json:"artifacts" yaml:"artifacts"`
}

// Transfers returns the number of rsync invocations in the report.
func (r *Report) Transfers() int {
	return len(r.ExitCodes)
}

// Failures returns the number of transfers that exited non-zero.
func (r *Report) Failures() int {
	n := 0
	for _, c := range r.ExitCodes {
		if c != 0 {
			n++
		}
	}
	return n
}

// tableWriter appends rows to a CSV as they are produced.
type tableWriter struct {
	f *os.File
	w *csv.Writer
}

func createTable(path string) (*tableWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating results dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	tw := &tableWriter{f: f, w: csv.NewWriter(f)}
	if err := tw.write(types.TransferHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	return tw, nil
}

func (tw *tableWriter) write(rec []string) error {
	if err := tw.w.Write(rec); err != nil {
		return fmt.Errorf("writing %s: %w", tw.f.Name(), err)
	}
	tw.w.Flush()
	return tw.w.Error()
}

func (tw *tableWriter) Close() error {
	tw.w.Flush()
	if err := tw.w.Error(); err != nil {
		_ = tw.f.Close()
		return err
	}
	return tw.f.Close()
}
