package tui

import "github.com/charmbracelet/lipgloss"

// Shared render helpers so every screen surfaces errors and hints the same way.

func errorLine(msg string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF6B6B")).
		Render("✗ " + msg)
}

func noteLine(msg string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7BD88F")).
		Render("✓ " + msg)
}

func helpLine(msg string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(msg)
}

func formBox(content string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(1, 2).
		Render(content)
}
