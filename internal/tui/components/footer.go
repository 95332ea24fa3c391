package components

import (
	"strings"

	"github.com/gloski/cli/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// KeyBinding is one key hint shown in the footer.
type KeyBinding struct {
	Key  string
	Desc string
}

// Footer renders the dashboard's key hint bar. Hints are dropped from the
// right until the line fits the width, so on narrow terminals the leading
// bindings survive; order them most important first.
func Footer(width int, bindings []KeyBinding) string {
	if width < 10 || len(bindings) == 0 {
		return ""
	}

	sep := styles.KeySepStyle.Render("  ")
	var content string
	for n := len(bindings); n > 0; n-- {
		parts := make([]string, n)
		for i, b := range bindings[:n] {
			parts[i] = styles.FormatKeyBinding(b.Key, b.Desc)
		}
		line := strings.Join(parts, sep)
		if n == 1 || lipgloss.Width(line) <= width-4 {
			content = line
			break
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderTop(true).
		BorderForeground(styles.DimGray).
		Render(content)
}
