// Package sampler polls host counters while a transfer runs: per-interval
// network throughput for a watched process, and CPU, memory and cumulative
// network usage for the interactive monitor.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/jamesainslie/syncbench/pkg/syncbench/logging"
	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

var logger = logging.Get("sampler")

var (
	// ErrProcessNotFound is returned when no process matches the search.
	ErrProcessNotFound = errors.New("process not found")

	// ErrProcessTable is returned when the process table cannot be read.
	ErrProcessTable = errors.New("error reading process table")
)

// Counters is one reading of cumulative network byte counters.
type Counters struct {
	Sent uint64
	Recv uint64
}

// CounterSource reads cumulative network counters.
type CounterSource interface {
	Read(ctx context.Context) (Counters, error)
}

// Liveness reports whether the watched process still runs.
type Liveness interface {
	Alive(ctx context.Context) (bool, error)
}

// HostCounters aggregates the byte counters of every interface.
type HostCounters struct{}

// Read returns the current system-wide counters.
func (HostCounters) Read(ctx context.Context) (Counters, error) {
	stats, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return Counters{}, fmt.Errorf("reading net counters: %w", err)
	}
	if len(stats) == 0 {
		return Counters{}, errors.New("no net counters reported")
	}
	return Counters{Sent: stats[0].BytesSent, Recv: stats[0].BytesRecv}, nil
}

// PID checks liveness by process id.
type PID int32

// Alive reports whether the process exists.
func (p PID) Alive(ctx context.Context) (bool, error) {
	return process.PidExistsWithContext(ctx, int32(p))
}

// ProcessEntry is a row of the process table.
type ProcessEntry struct {
	PID     int32
	Cmdline string
}

// ProcessLister lists running processes.
type ProcessLister interface {
	Processes(ctx context.Context) ([]ProcessEntry, error)
}

// HostProcesses reads the host process table.
type HostProcesses struct{}

// Processes returns every process whose command line is readable.
func (HostProcesses) Processes(ctx context.Context) ([]ProcessEntry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]ProcessEntry, 0, len(procs))
	for _, p := range procs {
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil || cmdline == "" {
			continue
		}
		entries = append(entries, ProcessEntry{PID: p.Pid, Cmdline: cmdline})
	}
	return entries, nil
}

// findRetry is the pause between process table scans.
const findRetry = 500 * time.Millisecond

// FindProcess returns the pid of the first process, other than this one,
// whose command line contains substr. The table is rescanned until wait
// elapses; a zero wait scans once.
func FindProcess(ctx context.Context, lister ProcessLister, substr string, wait time.Duration) (int32, error) {
	if substr == "" {
		return 0, fmt.Errorf("%w: empty command", ErrProcessNotFound)
	}

	self := int32(os.Getpid())
	deadline := time.Now().Add(wait)

	for {
		entries, err := lister.Processes(ctx)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrProcessTable, err)
		}

		for _, e := range entries {
			if e.PID != self && strings.Contains(e.Cmdline, substr) {
				logger.Info("process found", "pid", e.PID, "cmdline", e.Cmdline)
				return e.PID, nil
			}
		}

		if !time.Now().Before(deadline) {
			return 0, fmt.Errorf("%w: %q", ErrProcessNotFound, substr)
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(findRetry):
		}
	}
}

// SystemSource reads one resource sample.
type SystemSource interface {
	Sample(ctx context.Context) (types.ResourceSample, error)
}

// HostSystem samples the local host.
type HostSystem struct{}

// Sample reads CPU and memory utilisation and cumulative bytes sent.
func (HostSystem) Sample(ctx context.Context) (types.ResourceSample, error) {
	s := types.ResourceSample{Time: time.Now()}

	cpus, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return s, fmt.Errorf("reading cpu: %w", err)
	}
	if len(cpus) > 0 {
		s.CPUPercent = cpus[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("reading memory: %w", err)
	}
	s.MemPercent = vm.UsedPercent

	c, err := HostCounters{}.Read(ctx)
	if err != nil {
		return s, err
	}
	s.BytesSent = c.Sent

	return s, nil
}
