package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F0F6FC")).
			Background(lipgloss.Color("#238636")).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8B949E"))

	nameStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#58A6FF"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F6FC")).Background(lipgloss.Color("#1F6FEB"))
	starStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#E3B341"))
	descStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C9D1D9"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F85149")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F85149")).
			Padding(0, 1)

	buttonStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F6FC")).Padding(0, 1)
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#484F58")).Padding(0, 1)
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#238636"))
)
