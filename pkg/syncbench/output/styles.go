package output

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// ANSI 256-color palette shared by the pretty formatter.
const (
	colorAccent = lipgloss.Color("39")
	colorOK     = lipgloss.Color("42")
	colorWarn   = lipgloss.Color("214")
	colorFail   = lipgloss.Color("196")
	colorDim    = lipgloss.Color("245")
	colorText   = lipgloss.Color("255")
)

var (
	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1).
			MarginBottom(1)

	totalsBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1).
			MarginTop(1)

	titleText   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelText   = lipgloss.NewStyle().Foreground(colorDim)
	valueText   = lipgloss.NewStyle().Foreground(colorText)
	dimText     = lipgloss.NewStyle().Foreground(colorDim)
	warnText    = lipgloss.NewStyle().Foreground(colorWarn)
	okText      = lipgloss.NewStyle().Foreground(colorOK)
	failText    = lipgloss.NewStyle().Foreground(colorFail)
	runTimeText = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	columnText  = lipgloss.NewStyle().Bold(true).Foreground(colorDim).PaddingRight(2)
)

// exitCode renders an rsync exit code, green for success and red otherwise.
func exitCode(code int) string {
	if code == 0 {
		return okText.Render("0")
	}
	return failText.Render(strconv.Itoa(code))
}
