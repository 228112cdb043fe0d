package components

import (
	"strings"

	"github.com/theirongolddev/thriftify/internal/dashboard"
	"github.com/theirongolddev/thriftify/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Flash is a transient notification shown in the status bar.
type Flash struct {
	Level dashboard.Level
	Text  string
}

// RenderStatusBar renders the bottom bar: key hints on the left, the flash
// message (or server info) on the right.
func RenderStatusBar(width int, flash Flash, info string) string {
	t := theme.Active

	left := " [n]ew budget  [l]og spending  [r]efresh  [?]help  [q]uit"

	right := lipgloss.NewStyle().Foreground(t.TextDim).Render(info + " ")
	if flash.Text != "" {
		color := t.Accent
		switch flash.Level {
		case dashboard.LevelSuccess:
			color = t.Success
		case dashboard.LevelError:
			color = t.Error
		}
		right = lipgloss.NewStyle().Foreground(color).Bold(true).Render(flash.Text + " ")
	}

	leftR := lipgloss.NewStyle().Foreground(t.TextMuted).Render(left)
	padding := max(width-lipgloss.Width(leftR)-lipgloss.Width(right), 0)

	return lipgloss.NewStyle().MaxWidth(width).Render(leftR + strings.Repeat(" ", padding) + right)
}
