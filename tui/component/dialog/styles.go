package dialog

import "github.com/charmbracelet/lipgloss"

var (
	colorRed    = lipgloss.Color("#E74C3C")
	colorAmber  = lipgloss.Color("#F0AD4E")
	colorGreen  = lipgloss.Color("#2ECC71")
	colorWhite  = lipgloss.Color("#FFFFFF")
	colorDim    = lipgloss.Color("#666666")
	colorViolet = lipgloss.Color("#7D56F4")
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	messageStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	levelStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	buttonStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 2)

	activeButtonStyle = lipgloss.NewStyle().
				Foreground(colorWhite).
				Background(colorViolet).
				Bold(true).
				Padding(0, 2)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)
)

func accentFor(critical bool) lipgloss.Color {
	if critical {
		return colorRed
	}
	return colorAmber
}
