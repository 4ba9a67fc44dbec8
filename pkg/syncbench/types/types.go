// Package types provides the data types shared across syncbench: transfer
// measurements, resource and traffic samples, and helpers for parsing and
// formatting byte sizes.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// TransferRow is one timed rsync transfer of a ladder step.
type TransferRow struct {
	// Label names the ladder step, e.g. "64k".
	Label string `json:"label" yaml:"label"`

	// RunTime is the wall-clock duration of the rsync invocation.
	RunTime time.Duration `json:"run_time" yaml:"run_time"`

	// SizeBytes is the apparent size of the measured directory tree.
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`

	// ExitCode is the rsync exit code. It is recorded, never enforced.
	ExitCode int `json:"exit_code" yaml:"exit_code"`
}

// TransferHeader is the header row of a transfer CSV.
var TransferHeader = []string{"run_time", "file_size"}

// Record returns the CSV record for the row: seconds and human size.
func (r TransferRow) Record() []string {
	return []string{
		strconv.FormatFloat(r.RunTime.Seconds(), 'f', 6, 64),
		FormatSize(r.SizeBytes),
	}
}

// ResourceSample is one system-wide CPU/memory/network reading.
type ResourceSample struct {
	Time       time.Time `json:"time"`
	CPUPercent float64   `json:"cpu_percent"`
	MemPercent float64   `json:"mem_percent"`
	// BytesSent is the cumulative network bytes sent counter.
	BytesSent uint64 `json:"bytes_sent"`
}

// ResourceHeader is the header row of a resource CSV.
var ResourceHeader = []string{"time", "cpu_percent", "mem_percent", "net_sent_mb"}

// SentMB returns the cumulative bytes sent in MiB.
func (s ResourceSample) SentMB() float64 {
	return float64(s.BytesSent) / float64(MiB)
}

// Record returns the CSV record for the sample.
func (s ResourceSample) Record() []string {
	return []string{
		s.Time.Format("15:04:05"),
		strconv.FormatFloat(s.CPUPercent, 'f', 1, 64),
		strconv.FormatFloat(s.MemPercent, 'f', 1, 64),
		strconv.FormatFloat(s.SentMB(), 'f', 6, 64),
	}
}

// TrafficSample is the network delta observed over one polling interval.
// Start and End are offsets from the moment sampling began.
type TrafficSample struct {
	Start     time.Duration `json:"start"`
	End       time.Duration `json:"end"`
	SentBytes uint64        `json:"sent_bytes"`
	RecvBytes uint64        `json:"recv_bytes"`
}

// Interval returns the length of the sample window.
func (s TrafficSample) Interval() time.Duration {
	return s.End - s.Start
}

// SentMB returns the bytes sent during the interval in MiB.
func (s TrafficSample) SentMB() float64 {
	return float64(s.SentBytes) / float64(MiB)
}

// RecvMB returns the bytes received during the interval in MiB.
func (s TrafficSample) RecvMB() float64 {
	return float64(s.RecvBytes) / float64(MiB)
}

// UpMBps returns the upload bandwidth in MiB/s.
func (s TrafficSample) UpMBps() float64 {
	secs := s.Interval().Seconds()
	if secs <= 0 {
		return 0
	}
	return s.SentMB() / secs
}

// DownMBps returns the download bandwidth in MiB/s.
func (s TrafficSample) DownMBps() float64 {
	secs := s.Interval().Seconds()
	if secs <= 0 {
		return 0
	}
	return s.RecvMB() / secs
}

// Line renders the sample in the traffic log format.
func (s TrafficSample) Line() string {
	return fmt.Sprintf("[ %.1f - %.1f sec] sent %.2f MB, up_bandwidth %.4f MB/s, recv %.2f MB, down_bandwidth %.4f MB/s",
		s.Start.Seconds(), s.End.Seconds(),
		s.SentMB(), s.UpMBps(),
		s.RecvMB(), s.DownMBps())
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string ("512", "100K", "50MiB",
// "1.5G") and returns the size in bytes. Units are binary. Decimal values
// are truncated to the nearest byte.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string using
// IEC units, e.g. FormatSize(1536*1024) returns "1.5 MiB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
