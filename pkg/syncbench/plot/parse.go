// Package plot reads traffic logs and transfer CSVs back and renders them
// as PNG charts.
package plot

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

// ErrMalformedLine is returned for input that does not match the expected
// format. The wrapping error names the line.
var ErrMalformedLine = errors.New("malformed line")

// TrafficPoint is one parsed traffic log line. Values are in seconds, MB
// and MB/s as written.
type TrafficPoint struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	SentMB   float64 `json:"sent_mb"`
	UpMBps   float64 `json:"up_mbps"`
	RecvMB   float64 `json:"recv_mb"`
	DownMBps float64 `json:"down_mbps"`
}

// PointFrom converts a live sample to a plot point.
func PointFrom(s types.TrafficSample) TrafficPoint {
	return TrafficPoint{
		Start:    s.Start.Seconds(),
		End:      s.End.Seconds(),
		SentMB:   s.SentMB(),
		UpMBps:   s.UpMBps(),
		RecvMB:   s.RecvMB(),
		DownMBps: s.DownMBps(),
	}
}

const num = `([0-9]+(?:\.[0-9]+)?)`

var trafficLine = regexp.MustCompile(`^\[\s*` + num + `\s*-\s*` + num + `\s*sec\]\s*sent\s+` + num +
	` MB, up_bandwidth ` + num + ` MB/s, recv ` + num + ` MB, down_bandwidth ` + num + ` MB/s$`)

// ParseTrafficLog parses a traffic log. Blank lines are skipped.
func ParseTrafficLog(r io.Reader) ([]TrafficPoint, error) {
	var points []TrafficPoint

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		m := trafficLine.FindStringSubmatch(line)
		if m == nil {
			return points, fmt.Errorf("%w %d: %q", ErrMalformedLine, lineNo, line)
		}

		var vals [6]float64
		for i := range vals {
			v, err := strconv.ParseFloat(m[i+1], 64)
			if err != nil {
				return points, fmt.Errorf("%w %d: %w", ErrMalformedLine, lineNo, err)
			}
			vals[i] = v
		}
		points = append(points, TrafficPoint{
			Start: vals[0], End: vals[1],
			SentMB: vals[2], UpMBps: vals[3],
			RecvMB: vals[4], DownMBps: vals[5],
		})
	}
	if err := sc.Err(); err != nil {
		return points, fmt.Errorf("reading traffic log: %w", err)
	}

	return points, nil
}

// ParseTransferCSV reads a run_time,file_size CSV. Row labels are the
// 1-based row numbers.
func ParseTransferCSV(r io.Reader) ([]types.TransferRow, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transfer csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	start := 0
	if len(records[0]) > 0 && records[0][0] == types.TransferHeader[0] {
		start = 1
	}

	rows := make([]types.TransferRow, 0, len(records)-start)
	for i := start; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 2 {
			return rows, fmt.Errorf("%w %d: expected 2 fields", ErrMalformedLine, i+1)
		}

		secs, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return rows, fmt.Errorf("%w %d: %w", ErrMalformedLine, i+1, err)
		}
		size, err := types.ParseSize(rec[1])
		if err != nil {
			return rows, fmt.Errorf("%w %d: %w", ErrMalformedLine, i+1, err)
		}

		rows = append(rows, types.TransferRow{
			Label:     strconv.Itoa(len(rows) + 1),
			RunTime:   time.Duration(secs * float64(time.Second)),
			SizeBytes: size,
		})
	}

	return rows, nil
}
