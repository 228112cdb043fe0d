// Package components provides reusable TUI widgets for the thriftify dashboard.
package components

import (
	"github.com/theirongolddev/thriftify/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// First items absorb the remainder from integer division.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

// Metric is one figure in a MetricRow.
type Metric struct {
	Label string
	Value string
	Note  string
	Color lipgloss.Color // value color; zero means primary text
}

// MetricCard renders a small bordered card with label, value and note.
// outerWidth is the total rendered width including border.
func MetricCard(m Metric, outerWidth int) string {
	t := theme.Active

	valueColor := m.Color
	if valueColor == "" {
		valueColor = t.TextPrimary
	}

	content := lipgloss.NewStyle().Foreground(t.TextMuted).Render(m.Label) + "\n" +
		lipgloss.NewStyle().Foreground(valueColor).Bold(true).Render(m.Value)
	if m.Note != "" {
		content += "\n" + lipgloss.NewStyle().Foreground(t.TextDim).Render(m.Note)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Width(max(outerWidth-2, 10)).
		Padding(0, 1).
		Render(content)
}

// MetricRow renders metric cards side by side, summing to totalWidth.
func MetricRow(metrics []Metric, totalWidth int) string {
	if len(metrics) == 0 {
		return ""
	}
	widths := LayoutRow(totalWidth, len(metrics))
	cards := make([]string, len(metrics))
	for i, m := range metrics {
		cards[i] = MetricCard(m, widths[i])
	}
	return CardRow(cards)
}

// ContentCard renders a bordered panel with an optional title. A focused
// panel gets the accent border.
func ContentCard(title, body string, outerWidth int, focused bool) string {
	t := theme.Active

	border := t.Border
	if focused {
		border = t.BorderAccent
	}

	content := body
	if title != "" {
		content = lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true).Render(title) + "\n" + body
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(max(outerWidth-2, 10)).
		Padding(0, 1).
		Render(content)
}

// CardRow joins pre-rendered cards horizontally.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// CardInnerWidth returns the usable text width inside a ContentCard
// given its outer width (subtracts border + padding).
func CardInnerWidth(outerWidth int) int {
	return max(outerWidth-4, 10)
}
