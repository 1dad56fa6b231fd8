package preview

import "github.com/charmbracelet/lipgloss"

// theme groups the styles used to draw channel messages.
type theme struct {
	textBox    lipgloss.Style
	cardBox    lipgloss.Style
	cardTitle  lipgloss.Style
	postBack   lipgloss.Style
	openURL    lipgloss.Style
	imageBox   lipgloss.Style
	imageTitle lipgloss.Style
	meta       lipgloss.Style
}

func defaultTheme() theme {
	return theme{
		textBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("44")).
			Padding(0, 1),
		cardBox: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1),
		cardTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")),
		postBack: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("114")).
			Padding(0, 1),
		openURL: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("75")).
			Underline(true).
			Padding(0, 1),
		imageBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("176")).
			Padding(0, 1),
		imageTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("176")),
		meta: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
	}
}
