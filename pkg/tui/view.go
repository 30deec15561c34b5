package tui

import (
	"fmt"
	"strings"

	"github.com/loomcli/loom/pkg/chat"
	"github.com/loomcli/loom/pkg/controllers"
)

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.textarea.View())
	return b.String()
}

func (m Model) statusLine() string {
	if m.pendingApproval != "" {
		return approvalStyle.Render("tool call awaiting approval: [y] approve / [n] deny")
	}
	if m.err != nil {
		return errorStyle.Render("error: " + m.err.Error())
	}

	switch m.session.State() {
	case controllers.StateSending:
		return statusStyle.Render(m.spinner.View() + " sending...")
	case controllers.StateStreaming:
		return statusStyle.Render(m.spinner.View() + " streaming")
	case controllers.StateFinalizing:
		return statusStyle.Render("finalizing")
	default:
		if m.history.HasMore() {
			return statusStyle.Render("pgup: older history · enter: send · esc: quit")
		}
		return statusStyle.Render("enter: send · esc: quit")
	}
}

// renderTranscript regroups the current snapshot and renders each group.
// Groups are cheap to rebuild, so no caching happens here.
func (m Model) renderTranscript() string {
	groups := chat.GroupMessages(m.session.SnapshotMessages())

	var b strings.Builder
	for _, group := range groups {
		switch group.Kind {
		case chat.GroupToolPair:
			b.WriteString(m.renderToolPair(group))
		case chat.GroupSystemAlert:
			b.WriteString(m.renderAlert(group))
		default:
			b.WriteString(m.renderMessage(group))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMessage(group chat.MessageGroup) string {
	msg := group.Message
	var b strings.Builder

	if group.Reasoning != "" {
		b.WriteString(reasoningStyle.Render(indent(group.Reasoning)))
		b.WriteString("\n")
	}

	switch {
	case msg.IsUser():
		b.WriteString(userStyle.Render("you: "))
		b.WriteString(msg.DisplayContent())
		b.WriteString("\n")
	case msg.IsAssistant():
		b.WriteString(assistantStyle.Render(m.renderMarkdown(msg.DisplayContent())))
		b.WriteString("\n")
	default:
		b.WriteString(msg.DisplayContent())
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderToolPair(group chat.MessageGroup) string {
	var b strings.Builder

	if group.Reasoning != "" {
		b.WriteString(reasoningStyle.Render(indent(group.Reasoning)))
		b.WriteString("\n")
	}
	if group.ToolCall != nil {
		b.WriteString(toolCallStyle.Render("⚙ " + group.ToolCall.DisplayContent()))
		b.WriteString("\n")
	}
	switch {
	case group.ToolResult != nil:
		b.WriteString(toolResultStyle.Render(indent(group.ToolResult.DisplayContent())))
		b.WriteString("\n")
	case group.Provisional():
		b.WriteString(statusStyle.Render(indent(m.spinner.View() + " running...")))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderAlert(group chat.MessageGroup) string {
	text := chat.AlertText(group.Message.Content)
	if group.Collapsed {
		line := strings.SplitN(text, "\n", 2)[0]
		return alertStyle.Render(fmt.Sprintf("▸ %s", line)) + "\n"
	}
	return alertStyle.Render(text) + "\n"
}

// renderMarkdown renders assistant text through glamour, falling back to
// the raw text when the renderer is unavailable.
func (m Model) renderMarkdown(content string) string {
	if m.markdown == nil {
		return content
	}
	rendered, err := m.markdown.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
