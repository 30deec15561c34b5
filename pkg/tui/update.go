package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/loomcli/loom/pkg/controllers"
)

type sessionUpdateMsg controllers.StreamingUpdate

type historyLoadedMsg struct {
	err error
}

// waitForUpdate relays one controller update into the bubbletea loop
func waitForUpdate(updates <-chan controllers.StreamingUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return nil
		}
		return sessionUpdateMsg(update)
	}
}

func loadInitialHistory(history *controllers.HistoryController) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return historyLoadedMsg{err: history.LoadInitial(ctx)}
	}
}

func loadOlderHistory(history *controllers.HistoryController) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err := history.LoadOlder(ctx)
		return historyLoadedMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputHeight := m.textarea.Height() + 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight
		}
		m.textarea.SetWidth(msg.Width)
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.session.Cancel()
			return m, tea.Quit

		case "enter":
			if m.pendingApproval != "" {
				return m, nil
			}
			content := m.textarea.Value()
			if content == "" {
				break
			}
			if err := m.session.Submit(content, nil); err != nil {
				m.err = err
				break
			}
			m.textarea.Reset()
			m.refreshViewport()
			m.viewport.GotoBottom()
			return m, nil

		case "y", "n":
			// Only meaningful while an approval is pending; otherwise the
			// keystroke belongs to the textarea.
			if m.pendingApproval != "" {
				approve := msg.String() == "y"
				if err := m.session.ResolveApproval(approve, ""); err != nil {
					m.err = err
				}
				m.pendingApproval = ""
				m.refreshViewport()
				return m, nil
			}

		case "pgup":
			if m.history.HasMore() {
				cmds = append(cmds, loadOlderHistory(m.history))
			}
		}

	case sessionUpdateMsg:
		switch msg.Type {
		case controllers.ApprovalRequested:
			m.pendingApproval = msg.ApprovalID
		case controllers.TurnAborted:
			m.err = msg.Error
			if msg.RestoredInput != "" {
				m.textarea.SetValue(msg.RestoredInput)
			}
		case controllers.TurnCompleted:
			m.err = nil
		case controllers.ScrollSync:
			m.viewport.GotoBottom()
		}
		m.refreshViewport()
		if msg.Type != controllers.ScrollSync {
			m.viewport.GotoBottom()
		}
		cmds = append(cmds, waitForUpdate(m.session.Updates()))

	case historyLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		m.refreshViewport()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var taCmd tea.Cmd
	m.textarea, taCmd = m.textarea.Update(msg)
	cmds = append(cmds, taCmd)

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
}
