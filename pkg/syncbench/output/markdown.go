package output

import (
	"bytes"
	"fmt"
	"strings"
)

// MarkdownFormatter writes a GitHub-flavored markdown table, handy for
// pasting results into issues.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	fmt.Fprintf(w, "## syncbench %s\n\n", r.Mode)
	fmt.Fprintf(w, "Started %s, elapsed %s, %d transfers, %d failed.\n\n",
		r.Started.Format("2006-01-02 15:04:05"), formatDuration(r.Elapsed), r.Transfers, r.Failures)

	w.WriteString("| Table | Step | Run time (s) | Size | Exit |\n")
	w.WriteString("|---|---|---:|---:|---:|\n")
	for _, row := range r.Rows {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %d |\n",
			escapeCell(row.Table), escapeCell(row.Label), seconds(row.RunTime), row.SizeHuman, row.ExitCode)
	}

	if len(r.Tables) > 1 {
		w.WriteString("\n| Table | Transfers | Total (s) |\n")
		w.WriteString("|---|---:|---:|\n")
		for _, t := range r.Tables {
			fmt.Fprintf(w, "| %s | %d | %s |\n", escapeCell(t.Name), t.Transfers, seconds(t.RunTime))
		}
	}

	if len(r.Artifacts) > 0 {
		w.WriteString("\nArtifacts:\n\n")
		for _, a := range r.Artifacts {
			fmt.Fprintf(w, "- `%s`\n", a)
		}
	}
	return nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

var _ Formatter = (*MarkdownFormatter)(nil)
