package components

import (
	"strings"

	"github.com/theirongolddev/thriftify/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single view in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name
}

// Tab indices.
const (
	TabChart = iota
	TabPurposes
	TabBudgets
)

// Tabs defines the dashboard views.
var Tabs = []Tab{
	{Name: "Chart", Key: 'c', KeyPos: 0},
	{Name: "Purposes", Key: 'p', KeyPos: 0},
	{Name: "Budgets", Key: 'b', KeyPos: 0},
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Underline(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	dimKeyStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts[i] = activeStyle.Render(tab.Name)
			continue
		}
		before, key, after := tab.Name[:tab.KeyPos], string(tab.Name[tab.KeyPos]), tab.Name[tab.KeyPos+1:]
		parts[i] = inactiveStyle.Render(before) +
			dimKeyStyle.Render("[") + keyStyle.Render(key) + dimKeyStyle.Render("]") +
			inactiveStyle.Render(after)
	}

	return lipgloss.NewStyle().Width(width).Render(" " + strings.Join(parts, "  "))
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
