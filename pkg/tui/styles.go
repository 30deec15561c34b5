package tui

import "github.com/charmbracelet/lipgloss"

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b93b5")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d8d8d8"))

	reasoningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5c5044")).
			Italic(true)

	toolCallStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#eb8755"))

	toolResultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#93b56b"))

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f5b761"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d95f5f"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5c5044"))

	approvalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#976bb5")).
			Bold(true)
)
