package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

// Totals are the last cumulative counters read before the process exited.
type Totals struct {
	Sent    uint64 `json:"sent"`
	Recv    uint64 `json:"recv"`
	Samples int    `json:"samples"`
}

// Traffic logs per-interval network throughput while a process is alive.
type Traffic struct {
	Counters CounterSource
	Alive    Liveness
	Interval time.Duration

	// Log receives one formatted line per sample. Console, when set, gets a
	// copy of each line.
	Log     io.Writer
	Console io.Writer

	OnSample func(types.TrafficSample)

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// delta returns the growth of a counter between two readings. A counter
// that went backwards was reset, so everything it counts is new.
func delta(prev, cur uint64) uint64 {
	if cur < prev {
		return cur
	}
	return cur - prev
}

// Run samples until the process exits or ctx is cancelled. Cancellation
// returns the totals gathered so far along with the context error.
func (t *Traffic) Run(ctx context.Context) (Totals, error) {
	if t.Counters == nil || t.Alive == nil {
		return Totals{}, errors.New("traffic sampler needs a counter source and a liveness check")
	}

	now := t.now
	if now == nil {
		now = time.Now
	}
	sleep := t.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	interval := t.Interval
	if interval <= 0 {
		interval = time.Second
	}

	prev, err := t.Counters.Read(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("initial counter read: %w", err)
	}

	totals := Totals{Sent: prev.Sent, Recv: prev.Recv}
	setup := now()

	for {
		start := now()
		if err := sleep(ctx, interval); err != nil {
			return totals, err
		}

		alive, err := t.Alive.Alive(ctx)
		if err != nil {
			logger.Debug("liveness check failed", "error", err)
			alive = true
		}
		if !alive {
			logger.Info("watched process exited", "samples", totals.Samples)
			return totals, nil
		}

		var sent, recv uint64
		cur, err := t.Counters.Read(ctx)
		if err != nil {
			logger.Debug("counter read failed, keeping previous reading", "error", err)
		} else {
			sent = delta(prev.Sent, cur.Sent)
			recv = delta(prev.Recv, cur.Recv)
			prev = cur
		}
		totals.Sent, totals.Recv = prev.Sent, prev.Recv

		end := now()
		sample := types.TrafficSample{
			Start:     start.Sub(setup),
			End:       end.Sub(setup),
			SentBytes: sent,
			RecvBytes: recv,
		}
		totals.Samples++

		line := sample.Line()
		if t.Log != nil {
			if _, err := fmt.Fprintln(t.Log, line); err != nil {
				return totals, fmt.Errorf("writing traffic log: %w", err)
			}
			if f, ok := t.Log.(interface{ Flush() error }); ok {
				if err := f.Flush(); err != nil {
					return totals, fmt.Errorf("flushing traffic log: %w", err)
				}
			}
		}
		if t.Console != nil {
			fmt.Fprintln(t.Console, line)
		}
		if t.OnSample != nil {
			t.OnSample(sample)
		}
	}
}

// LogName returns the traffic log file name for a run started at ts.
func LogName(ts time.Time) string {
	return "process_traffic_" + ts.Format("2006-01-02-15:04:05") + ".txt"
}
