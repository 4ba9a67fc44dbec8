package sampler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

// QuitFunc waits up to timeout for a quit request and reports whether one
// arrived.
type QuitFunc func(ctx context.Context, timeout time.Duration) bool

// Summary describes a finished resource sampling run.
type Summary struct {
	Samples int           `json:"samples"`
	Elapsed time.Duration `json:"elapsed"`
}

// Resource writes one CSV row per host sample until asked to quit.
type Resource struct {
	Source SystemSource

	// Out receives the CSV. Console, when set, gets a progress line per
	// sample.
	Out     io.Writer
	Console io.Writer

	// Quit doubles as the pause between samples. Nil sleeps Interval.
	Quit       QuitFunc
	Interval   time.Duration
	MaxSamples int

	OnSample func(int, types.ResourceSample)
}

// Run samples until Quit fires, MaxSamples is reached or ctx is cancelled.
// The CSV is flushed after every row.
func (r *Resource) Run(ctx context.Context) (Summary, error) {
	if r.Source == nil || r.Out == nil {
		return Summary{}, errors.New("resource sampler needs a source and an output")
	}

	interval := r.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	quit := r.Quit
	if quit == nil {
		quit = func(ctx context.Context, d time.Duration) bool {
			_ = sleepCtx(ctx, d)
			return false
		}
	}

	w := csv.NewWriter(r.Out)
	if err := w.Write(types.ResourceHeader); err != nil {
		return Summary{}, fmt.Errorf("writing header: %w", err)
	}
	w.Flush()

	start := time.Now()
	var sum Summary
	for {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = time.Since(start)
			return sum, nil
		}

		s, err := r.Source.Sample(ctx)
		if err != nil {
			sum.Elapsed = time.Since(start)
			if ctx.Err() != nil {
				return sum, nil
			}
			return sum, fmt.Errorf("sampling host: %w", err)
		}

		if err := w.Write(s.Record()); err != nil {
			return sum, fmt.Errorf("writing sample: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return sum, fmt.Errorf("flushing samples: %w", err)
		}
		sum.Samples++

		if r.Console != nil {
			rec := s.Record()
			fmt.Fprintf(r.Console, "%d:time[%s], cpu[%s], mem[%s], net[%s]\n",
				sum.Samples, rec[0], rec[1], rec[2], rec[3])
		}
		if r.OnSample != nil {
			r.OnSample(sum.Samples, s)
		}

		if r.MaxSamples > 0 && sum.Samples >= r.MaxSamples {
			break
		}
		if quit(ctx, interval) {
			logger.Info("quit requested", "samples", sum.Samples)
			break
		}
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}
