package tui

import (
	appstate "refero-cli/internal/app"

	tea "github.com/charmbracelet/bubbletea"
)

func Run(st *appstate.Store) error {
	m := newAppModel(st)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
