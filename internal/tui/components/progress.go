package components

import (
	"fmt"

	"github.com/theirongolddev/thriftify/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ColorForUsage returns the bar color for spent/budget ratio pct, comparing
// it with pace, the share of the budget the plan allows by now.
func ColorForUsage(pct, pace float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 1:
		return t.Error
	case pct > pace:
		return t.Warning
	default:
		return t.Success
	}
}

// SpendBar renders a labeled bar for spent/budget with a percentage.
func SpendBar(label string, pct, pace float64, labelW, barWidth int) string {
	t := theme.Active
	shown := min(max(pct, 0), 1)
	color := ColorForUsage(pct, pace)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + " " +
		bar.ViewAs(shown) + " " +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", pct*100))
}
