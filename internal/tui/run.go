package tui

import (
	tea "charm.land/bubbletea/v2"
)

// Run drives model until it quits and returns the final model.
func Run(model tea.Model) (tea.Model, error) {
	return tea.NewProgram(model).Run()
}
