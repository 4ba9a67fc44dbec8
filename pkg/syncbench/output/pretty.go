package output

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// PrettyFormatter renders a styled report for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatTable(r))
	w.WriteString(f.formatFooter(r))

	for _, warn := range r.Warnings {
		w.WriteString("\n")
		w.WriteString(warnText.Render("! " + warn))
	}
	w.WriteString("\n")
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	lines := []string{
		titleText.Render("syncbench " + r.Mode),
		fmt.Sprintf("%s %s  %s %s",
			labelText.Render("Started:"), valueText.Render(r.Started.Format("2006-01-02 15:04:05")),
			labelText.Render("Elapsed:"), valueText.Render(formatDuration(r.Elapsed))),
	}
	return summaryBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatTable(r *Result) string {
	if len(r.Rows) == 0 {
		return dimText.Render("  No transfers recorded\n")
	}

	labelWidth, tableWidth := len("STEP"), len("TABLE")
	for _, row := range r.Rows {
		labelWidth = max(labelWidth, len(row.Label))
		tableWidth = max(tableWidth, len(row.Table))
	}

	var sb strings.Builder
	sb.WriteString("  " +
		columnText.Render(padRight("TABLE", tableWidth)) +
		columnText.Render(padRight("STEP", labelWidth)) +
		columnText.Render(padLeft("RUN TIME", 10)) +
		columnText.Render(padLeft("SIZE", 10)) +
		columnText.Render("EXIT") + "\n")

	for _, row := range r.Rows {
		sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s  %s\n",
			dimText.Render(padRight(row.Table, tableWidth)),
			valueText.Render(padRight(row.Label, labelWidth)),
			runTimeText.Render(padLeft(seconds(row.RunTime)+"s", 10)),
			valueText.Render(padLeft(row.SizeHuman, 10)),
			exitCode(row.ExitCode)))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	status := okText.Render("all transfers exited 0")
	if r.Failures > 0 {
		status = failText.Render(fmt.Sprintf("%d failed", r.Failures))
	}

	lines := []string{
		fmt.Sprintf("%s %s  %s %s  %s",
			labelText.Render("Transfers:"), valueText.Render(strconv.Itoa(r.Transfers)),
			labelText.Render("Total:"), valueText.Render(formatDuration(r.TotalRunTime())),
			status),
	}
	if len(r.Tables) > 1 {
		for _, t := range r.Tables {
			lines = append(lines, fmt.Sprintf("  %s %s",
				labelText.Render(t.Name+":"), valueText.Render(formatDuration(t.RunTime))))
		}
	}
	for _, a := range r.Artifacts {
		lines = append(lines, labelText.Render("Wrote: ")+dimText.Render(a))
	}
	return totalsBox.Render(strings.Join(lines, "\n"))
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
