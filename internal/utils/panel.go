package utils

import "github.com/charmbracelet/lipgloss"

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	validBorder   = lipgloss.AdaptiveColor{Light: "#79740e", Dark: "#b8bb26"}
	invalidBorder = lipgloss.AdaptiveColor{Light: "#b57614", Dark: "#fabd2f"}
)

// Panel frames a method in a rounded border, green when valid
func Panel(body string, valid bool) string {
	border := invalidBorder
	if valid {
		border = validBorder
	}
	return panelStyle.BorderForeground(border).Render(body)
}
