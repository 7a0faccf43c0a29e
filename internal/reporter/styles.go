package reporter

import "github.com/charmbracelet/lipgloss"

var (
	cmdStyle    = lipgloss.NewStyle().Bold(true)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
)
