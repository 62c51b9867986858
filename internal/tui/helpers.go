package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// truncate shortens s to at most max display cells with an ellipsis
func truncate(s string, max int) string {
	if max <= 1 || lipgloss.Width(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "…")
}

// pad right-pads s to width display cells
func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
