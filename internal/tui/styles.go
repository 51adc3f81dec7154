package tui

import (
	"github.com/charmbracelet/lipgloss"

	appstate "refero-cli/internal/app"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	footerStyle = lipgloss.NewStyle().Faint(true)

	flashStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			PaddingLeft(1)
	detailTitleStyle = lipgloss.NewStyle().Bold(true)
	fieldLabelStyle  = lipgloss.NewStyle().Faint(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2)

	focusedPaneStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, true, false, false).
				BorderForeground(lipgloss.Color("12"))
	blurredPaneStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, true, false, false).
				Faint(false)
)

func paneStyle(focused bool) lipgloss.Style {
	if focused {
		return focusedPaneStyle
	}
	return blurredPaneStyle
}

func noticeStyle(level appstate.Level) lipgloss.Style {
	switch level {
	case appstate.LevelError:
		return errorStyle
	case appstate.LevelWarning:
		return warningStyle
	default:
		return flashStyle
	}
}
