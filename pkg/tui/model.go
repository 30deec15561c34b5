package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/loomcli/loom/pkg/controllers"
)

// Model is the bubbletea surface over the reconciliation engine. It holds
// no conversation state of its own: every render pulls a fresh snapshot
// from the session controller and regroups it.
type Model struct {
	session *controllers.SessionController
	history *controllers.HistoryController

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer

	width  int
	height int
	ready  bool

	pendingApproval string
	err             error
}

// New builds the chat surface
func New(session *controllers.SessionController, history *controllers.HistoryController) Model {
	ta := textarea.New()
	ta.Placeholder = "Send a message..."
	ta.Focus()
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		renderer = nil
	}

	return Model{
		session:  session,
		history:  history,
		textarea: ta,
		spinner:  sp,
		markdown: renderer,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		loadInitialHistory(m.history),
		waitForUpdate(m.session.Updates()),
	)
}
