package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/syncbench/pkg/syncbench/bench"
	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

func sampleReport() *bench.Report {
	return &bench.Report{
		Mode:    bench.ModeDelta,
		Started: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
		Elapsed: 12 * time.Second,
		Tables: []bench.Table{{
			Name: "file_size_sync_test_delta_1",
			Path: "/results/file_size_sync_test_delta_1.csv",
			Rows: []types.TransferRow{
				{Label: "1k", RunTime: 1500 * time.Millisecond, SizeBytes: 20 * 1040},
				{Label: "2k", RunTime: 2 * time.Second, SizeBytes: 40 * 1040, ExitCode: 23},
			},
		}},
		ExitCodes: []int{0, 23},
		Artifacts: []string{"/results/file_size_sync_test_delta_1.csv"},
	}
}

func TestFromReport(t *testing.T) {
	r := FromReport(sampleReport())

	assert.Equal(t, "delta", r.Mode)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, "file_size_sync_test_delta_1", r.Rows[0].Table)
	assert.InDelta(t, 1.5, r.Rows[0].Seconds, 1e-9)
	assert.Equal(t, "20 KiB", r.Rows[0].SizeHuman)
	assert.Equal(t, 2, r.Transfers)
	assert.Equal(t, 1, r.Failures)
	assert.Equal(t, 3500*time.Millisecond, r.TotalRunTime())
	require.Len(t, r.Tables, 1)
	assert.Equal(t, TableTotal{
		Name:      "file_size_sync_test_delta_1",
		Transfers: 2,
		RunTime:   3500 * time.Millisecond,
		Seconds:   3.5,
	}, r.Tables[0])
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "1 of 2")
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "markdown", "plain", "pretty", "yaml"}, Available())

	f, err := Get("JSON")
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, f)

	_, err = Get("xml")
	assert.Error(t, err)

	reg := NewRegistry()
	reg.Register("x", func() Formatter { return &PlainFormatter{} })
	assert.Equal(t, []string{"x"}, reg.Available())
}

func format(t *testing.T, name string, r *Result) string {
	t.Helper()
	f, err := Get(name)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, r))
	return buf.String()
}

func TestPlainFormatter(t *testing.T) {
	out := format(t, "plain", FromReport(sampleReport()))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "TABLE"))
	assert.Contains(t, lines[1], "1.500")
	assert.Contains(t, lines[2], "23")
}

func TestJSONFormatter(t *testing.T) {
	out := format(t, "json", FromReport(sampleReport()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "delta", doc["mode"])
	assert.Equal(t, "12s", doc["elapsed"])
	assert.EqualValues(t, 1, doc["failures"])
	rows, ok := doc["rows"].([]any)
	require.True(t, ok)
	assert.Len(t, rows, 2)
}

func TestJSONFormatter_EmptyRows(t *testing.T) {
	out := format(t, "json", &Result{Mode: "full"})
	assert.Contains(t, out, `"rows": []`)
}

func TestYAMLFormatter(t *testing.T) {
	out := format(t, "yaml", FromReport(sampleReport()))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "delta", doc["mode"])
	assert.Equal(t, "3.5s", doc["total_run_time"])
}

func TestCSVFormatter(t *testing.T) {
	out := format(t, "csv", FromReport(sampleReport()))

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"file_size_sync_test_delta_1", "2k", "2.000000", "41 KiB", "41600", "23"}, records[2])
}

func TestMarkdownFormatter(t *testing.T) {
	out := format(t, "markdown", FromReport(sampleReport()))
	assert.Contains(t, out, "## syncbench delta")
	assert.Contains(t, out, "| file_size_sync_test_delta_1 | 1k | 1.500 | 20 KiB | 0 |")
	assert.Contains(t, out, "- `/results/file_size_sync_test_delta_1.csv`")
}

func TestPrettyFormatter(t *testing.T) {
	out := format(t, "pretty", FromReport(sampleReport()))
	assert.Contains(t, out, "syncbench delta")
	assert.Contains(t, out, "1.500s")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "1 of 2 transfers exited non-zero")

	empty := format(t, "pretty", &Result{Mode: "full"})
	assert.Contains(t, empty, "No transfers recorded")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", formatDuration(0))
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
}

func twoRoundReport() *bench.Report {
	rep := sampleReport()
	rep.Tables = append(rep.Tables, bench.Table{
		Name: "file_size_sync_test_delta_2",
		Rows: []types.TransferRow{
			{Label: "1k", RunTime: 4 * time.Second, SizeBytes: 22 * 1040},
		},
	})
	rep.ExitCodes = append(rep.ExitCodes, 0)
	return rep
}

func TestTableTotals(t *testing.T) {
	r := FromReport(twoRoundReport())

	md := format(t, "markdown", r)
	assert.Contains(t, md, "| file_size_sync_test_delta_1 | 2 | 3.500 |")
	assert.Contains(t, md, "| file_size_sync_test_delta_2 | 1 | 4.000 |")

	pretty := format(t, "pretty", r)
	assert.Contains(t, pretty, "file_size_sync_test_delta_2:")
	assert.Contains(t, pretty, "7.5s")

	single := format(t, "markdown", FromReport(sampleReport()))
	assert.NotContains(t, single, "| Transfers |")
}
