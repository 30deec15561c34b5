package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/loomcli/loom/pkg/controllers"
)

// StartApp runs the chat surface until the user quits
func StartApp(session *controllers.SessionController, history *controllers.HistoryController) error {
	program := tea.NewProgram(New(session, history), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
