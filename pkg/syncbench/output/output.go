// Package output provides formatters for displaying benchmark reports in
// various output formats (pretty, plain, json, yaml, csv, markdown).
//
// The package uses a registry pattern so that formatters can be selected
// by name at runtime:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.FromReport(report)); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/bench"
	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

// Row is one transfer, flattened for display.
type Row struct {
	Table     string        `json:"table" yaml:"table"`
	Label     string        `json:"label" yaml:"label"`
	RunTime   time.Duration `json:"-" yaml:"-"`
	Seconds   float64       `json:"run_time" yaml:"run_time"`
	Size      int64         `json:"size" yaml:"size"`
	SizeHuman string        `json:"size_human" yaml:"size_human"`
	ExitCode  int           `json:"exit_code" yaml:"exit_code"`
}

// TableTotal is the summed transfer time of one result table.
type TableTotal struct {
	Name      string        `json:"name" yaml:"name"`
	Transfers int           `json:"transfers" yaml:"transfers"`
	RunTime   time.Duration `json:"-" yaml:"-"`
	Seconds   float64       `json:"run_time" yaml:"run_time"`
}

// Result contains everything a formatter renders.
type Result struct {
	Mode      string        `json:"mode" yaml:"mode"`
	Started   time.Time     `json:"started" yaml:"started"`
	Elapsed   time.Duration `json:"-" yaml:"-"`
	Rows      []Row         `json:"rows" yaml:"rows"`
	Tables    []TableTotal  `json:"tables,omitempty" yaml:"tables,omitempty"`
	Transfers int           `json:"transfers" yaml:"transfers"`
	Failures  int           `json:"failures" yaml:"failures"`
	Artifacts []string      `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Warnings  []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FromReport flattens a benchmark report.
func FromReport(r *bench.Report) *Result {
	res := &Result{
		Mode:      string(r.Mode),
		Started:   r.Started,
		Elapsed:   r.Elapsed,
		Transfers: r.Transfers(),
		Failures:  r.Failures(),
		Artifacts: r.Artifacts,
	}

	for _, t := range r.Tables {
		total := t.Total()
		res.Tables = append(res.Tables, TableTotal{
			Name:      t.Name,
			Transfers: len(t.Rows),
			RunTime:   total,
			Seconds:   total.Seconds(),
		})
		for _, row := range t.Rows {
			res.Rows = append(res.Rows, Row{
				Table:     t.Name,
				Label:     row.Label,
				RunTime:   row.RunTime,
				Seconds:   row.RunTime.Seconds(),
				Size:      row.SizeBytes,
				SizeHuman: types.FormatSize(row.SizeBytes),
				ExitCode:  row.ExitCode,
			})
		}
	}

	if res.Failures > 0 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%d of %d transfers exited non-zero", res.Failures, res.Transfers))
	}
	return res
}

// TotalRunTime returns the summed transfer time.
func (r *Result) TotalRunTime() time.Duration {
	var d time.Duration
	for _, row := range r.Rows {
		d += row.RunTime
	}
	return d
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// formatDuration renders a duration rounded for display.
func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
