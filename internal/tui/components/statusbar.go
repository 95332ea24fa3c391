package components

import (
	"github.com/gloski/cli/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// StatusBar renders a status message line between the content and footer.
// Long messages are truncated to a single line so the bar never wraps.
func StatusBar(width int, message string, isError bool) string {
	if message == "" {
		return ""
	}

	style := styles.MutedText
	if isError {
		style = styles.ErrorText
	}

	text := ansi.Truncate(style.Render(message), max(width-4, 1), "…")

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		Render(text)
}
