package plot

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal styles shared by the dashboard views.
var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3b518b")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#21908d"))

	Selected = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#fde725"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5cc863")).
			Bold(true)

	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("#5cc863"))
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00"))
	Failure = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)
)

// Separator is a dim horizontal rule.
func Separator(width int) string {
	if width < 8 {
		width = 8
	}
	mid := width / 2
	return Subtle.Render(strings.Repeat("─", mid-2) + " ◆ " + strings.Repeat("─", width-mid-2))
}

// Metric renders "label  value" with the value highlighted.
func Metric(label, value string) string {
	return MetricLabel.Render(label+"  ") + MetricValue.Render(value)
}
