package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

var plainColumns = []string{"TABLE", "STEP", "RUN_TIME", "SIZE", "BYTES", "EXIT"}

// PlainFormatter writes one tab-aligned line per transfer with no styling,
// so the output can be piped into awk or sort.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	fmt.Fprintln(tw, strings.Join(plainColumns, "\t"))
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			row.Table, row.Label, seconds(row.RunTime), row.SizeHuman, row.Size, row.ExitCode)
	}

	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
