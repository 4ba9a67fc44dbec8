package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/syncbench/pkg/syncbench/types"
)

// historyRows is the number of recent samples kept on screen.
const historyRows = 10

// SampleMsg delivers one resource sample to the monitor.
type SampleMsg struct {
	Index  int
	Sample types.ResourceSample
}

// DoneMsg is sent when the sampler stops.
type DoneMsg struct {
	Samples int
	Elapsed time.Duration
	Err     error
}

// MonitorModel shows live CPU, memory and network samples.
type MonitorModel struct {
	spinner   spinner.Model
	output    string
	startTime time.Time
	width     int
	height    int

	count   int
	last    types.ResourceSample
	recent  []types.ResourceSample
	peakCPU float64
	peakMem float64

	quitting bool
	done     bool
	elapsed  time.Duration
	err      error
}

// NewMonitorModel creates a monitor writing samples to output.
func NewMonitorModel(output string) MonitorModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return MonitorModel{
		spinner:   s,
		output:    output,
		startTime: time.Now(),
		width:     80,
		height:    24,
	}
}

// Init starts the spinner.
func (m MonitorModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the monitor.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "e", "E", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case SampleMsg:
		m.addSample(msg)
		return m, nil

	case DoneMsg:
		m.done = true
		m.elapsed = msg.Elapsed
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *MonitorModel) addSample(msg SampleMsg) {
	m.count = msg.Index
	m.last = msg.Sample
	m.peakCPU = max(m.peakCPU, msg.Sample.CPUPercent)
	m.peakMem = max(m.peakMem, msg.Sample.MemPercent)

	m.recent = append(m.recent, msg.Sample)
	if len(m.recent) > historyRows {
		m.recent = m.recent[len(m.recent)-historyRows:]
	}
}

// Quitting reports whether the user asked to stop.
func (m MonitorModel) Quitting() bool {
	return m.quitting
}

// Count returns the number of samples received.
func (m MonitorModel) Count() int {
	return m.count
}

// View renders the monitor.
func (m MonitorModel) View() string {
	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.renderHeader(contentWidth))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorTextStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
	case m.done:
		b.WriteString(successTextStyle.Render(fmt.Sprintf("  Done: %d samples in %s", m.count, m.elapsed.Round(time.Millisecond))))
	default:
		b.WriteString(fmt.Sprintf("  %s Sampling to %s", m.spinner.View(), m.output))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderStats(contentWidth))
	b.WriteString("\n\n")
	b.WriteString(m.renderRecent())

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

func (m MonitorModel) renderHeader(width int) string {
	title := titleStyle.Render("  syncbench monitor")
	hint := mutedTextStyle.Render("[e/q to stop]")

	spacing := width - lipgloss.Width(title) - lipgloss.Width(hint)
	if spacing < 1 {
		spacing = 1
	}
	return title + strings.Repeat(" ", spacing) + hint
}

func (m MonitorModel) renderStats(totalWidth int) string {
	boxWidth := (totalWidth - 14) / 4
	if boxWidth < 10 {
		boxWidth = 10
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		"  ",
		renderStatBox("Samples", humanize.Comma(int64(m.count)), boxWidth),
		" ",
		renderStatBox("CPU peak", formatPercent(m.peakCPU), boxWidth),
		" ",
		renderStatBox("Mem peak", formatPercent(m.peakMem), boxWidth),
		" ",
		renderStatBox("Sent", humanize.IBytes(m.last.BytesSent), boxWidth),
	)
}

func renderStatBox(label, value string, width int) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		statsLabelStyle.Render(label),
		statsValueStyle.Render(value))
	return statsBoxStyle.Width(width).Align(lipgloss.Center).Render(content)
}

func (m MonitorModel) renderRecent() string {
	if len(m.recent) == 0 {
		return mutedTextStyle.Render("  waiting for the first sample...")
	}

	var b strings.Builder
	b.WriteString("  " + columnHeaderStyle.Render(fmt.Sprintf("%-10s %8s %8s %12s", "TIME", "CPU", "MEM", "SENT MB")))
	b.WriteString("\n")
	for _, s := range m.recent {
		cpu := loadStyle(s.CPUPercent).Render(fmt.Sprintf("%8s", formatPercent(s.CPUPercent)))
		mem := loadStyle(s.MemPercent).Render(fmt.Sprintf("%8s", formatPercent(s.MemPercent)))
		fmt.Fprintf(&b, "  %-10s %s %s %12s\n", s.Time.Format("15:04:05"), cpu, mem,
			strconv.FormatFloat(s.SentMB(), 'f', 2, 64))
	}
	return b.String()
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}
