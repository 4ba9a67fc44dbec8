package output

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// CSVFormatter writes every transfer as one CSV record.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"table", "step", "run_time", "file_size", "size_bytes", "exit_code"}); err != nil {
		return err
	}

	for _, row := range r.Rows {
		rec := []string{
			row.Table,
			row.Label,
			strconv.FormatFloat(row.Seconds, 'f', 6, 64),
			row.SizeHuman,
			strconv.FormatInt(row.Size, 10),
			strconv.Itoa(row.ExitCode),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

var _ Formatter = (*CSVFormatter)(nil)
