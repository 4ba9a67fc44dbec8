// Package sysinfo detects host resources so that benchmark results can be
// compared across machines.
package sysinfo

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Resources contains detected host resources.
type Resources struct {
	// CPUs is the number of logical CPU cores.
	CPUs int `json:"cpus"`

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM uint64 `json:"total_ram"`

	// AvailableRAM is the RAM available to new processes in bytes.
	AvailableRAM uint64 `json:"available_ram"`

	Hostname string `json:"hostname,omitempty"`
	Platform string `json:"platform,omitempty"`
	Kernel   string `json:"kernel,omitempty"`
}

// Detect reads host resources. Fields that cannot be read keep a fallback
// (runtime.NumCPU for CPUs, zero otherwise); the first error is returned
// alongside the partial result.
func Detect(ctx context.Context) (Resources, error) {
	r := Resources{CPUs: runtime.NumCPU()}
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if n, err := cpu.CountsWithContext(ctx, true); err != nil {
		keep(err)
	} else if n > 0 {
		r.CPUs = n
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		keep(err)
	} else {
		r.TotalRAM = vm.Total
		r.AvailableRAM = vm.Available
	}

	if info, err := host.InfoWithContext(ctx); err != nil {
		keep(err)
	} else {
		r.Hostname = info.Hostname
		r.Platform = info.Platform
		r.Kernel = info.KernelVersion
	}

	return r, firstErr
}
