package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/thriftify/internal/cli"
	"github.com/theirongolddev/thriftify/internal/tui/components"
	"github.com/theirongolddev/thriftify/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.form != nil {
		return a.viewForm()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) viewTooNarrow() string {
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  thriftify needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, max(a.height, 5)), max(a.height, 5))
}

func (a App) viewForm() string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2).
		Render(a.form.View())

	hint := ""
	if a.formKind != formSetup {
		hint = "\n" + lipgloss.NewStyle().Foreground(t.TextDim).Render("esc to cancel")
	}
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card+hint)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ thriftify"))
	b.WriteString(subtitleStyle.Render(" · Budget Dashboard"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Loading budget from " + a.cfg.Client.ServerURL))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

type binding struct{ key, desc string }

var helpSections = []struct {
	title    string
	bindings []binding
}{
	{"Navigation", []binding{
		{"c p b", "Jump to tab"},
		{"tab", "Next tab"},
		{"← →", "Move chart cursor"},
		{"[ ]", "Previous / Next budget"},
		{"j k", "Move in budget list"},
		{"Enter", "Show highlighted budget"},
	}},
	{"Actions", []binding{
		{"n", "New budget"},
		{"l", "Log spending"},
		{"r", "Refresh"},
		{"Esc", "Cancel form"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}},
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Planned).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range helpSections {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderBudgetLine(w)
	statusBar := components.RenderStatusBar(w, a.flash, a.statusInfo())

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case components.TabChart:
		content = a.renderChartTab(cw, contentH)
	case components.TabPurposes:
		content = a.renderPurposesTab(cw)
	case components.TabBudgets:
		content = a.renderBudgetsTab(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.PlaceHorizontal(w, lipgloss.Center, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (a App) renderBudgetLine(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)

	st := a.ctrl.State()
	if !st.Loaded {
		return dim.Width(w).Render(" no budget loaded")
	}
	line := dim.Render(" ") + accent.Render(st.Active.StartDate) +
		dim.Render(" │ ") + accent.Render(cli.FormatDays(st.Active.Duration)) +
		dim.Render(" │ ") + accent.Render(cli.FormatMoney(st.Active.Amount))
	if a.refreshing {
		line += dim.Render(" │ ") + a.spinner.View()
	}
	return lipgloss.NewStyle().Width(w).Render(line)
}

func (a App) statusInfo() string {
	if a.lastRefresh.IsZero() {
		return a.cfg.Client.ServerURL
	}
	return fmt.Sprintf("%s · updated %s", a.cfg.Client.ServerURL, humanize.Time(a.lastRefresh))
}

func (a App) renderChartTab(cw, h int) string {
	t := theme.Active
	st := a.ctrl.State()
	sum := summarize(st.Active, st.Series, time.Now())

	metrics := components.MetricRow([]components.Metric{
		{Label: "Budget", Value: cli.FormatMoney(sum.Amount), Note: cli.FormatDays(sum.Duration)},
		{Label: "Spent", Value: cli.FormatMoney(sum.Spent), Note: cli.FormatPercent(sum.Used) + " used", Color: t.Actual},
		{Label: "Remaining", Value: cli.FormatMoney(sum.Remaining), Color: remainingColor(sum)},
		{Label: "Plan to date", Value: cli.FormatMoney(sum.PlannedToDate), Note: fmt.Sprintf("day %d of %d", sum.Elapsed, sum.Duration), Color: t.Planned},
	}, cw)

	bar := components.SpendBar("Spent", sum.Used, sum.Pace, 6, max(cw-20, 10))

	tipW := 28
	chartW := cw - tipW
	chartH := max(h-lipgloss.Height(metrics)-5, 6)

	legend := lipgloss.NewStyle().Foreground(t.Planned).Render("•• Budget") + "  " +
		lipgloss.NewStyle().Foreground(t.Actual).Render("██ Spending")
	chartCard := components.ContentCard("Daily spending vs. plan  "+legend,
		a.chart.View(components.CardInnerWidth(chartW), chartH), chartW, true)

	tip := strings.Join(a.chart.Tooltip(), "\n")
	if tip == "" {
		tip = lipgloss.NewStyle().Foreground(t.TextDim).Render("←/→ to inspect a day")
	}
	tipCard := components.ContentCard("Selected day", tip, tipW, false)

	return metrics + "\n" + " " + bar + "\n" + components.CardRow([]string{chartCard, tipCard})
}

func remainingColor(sum budgetSummary) lipgloss.Color {
	t := theme.Active
	switch {
	case sum.Remaining.IsNegative():
		return t.Error
	case sum.Spent.GreaterThan(sum.PlannedToDate):
		return t.Warning
	default:
		return t.Success
	}
}

func (a App) renderPurposesTab(cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	if a.stats == nil {
		return components.ContentCard("Spending by purpose",
			lipgloss.NewStyle().Foreground(t.TextDim).Render("No spending data yet."), cw, true)
	}

	nameW := 20
	moneyW := 12
	barW := max(innerW-nameW-moneyW-10, 5)

	peak := 0.0
	for _, p := range a.stats.ByPurpose {
		peak = max(peak, p.Spent.InexactFloat64())
	}

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	moneyStyle := lipgloss.NewStyle().Foreground(t.Actual).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	barStyle := lipgloss.NewStyle().Foreground(t.Actual)

	var b strings.Builder
	for _, p := range a.stats.ByPurpose {
		name := p.Purpose
		if name == "" {
			name = "(none)"
		}
		share := 0.0
		if a.stats.Total.IsPositive() {
			share = p.Spent.Div(a.stats.Total).InexactFloat64()
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			nameStyle.Render(fmt.Sprintf("%-*s", nameW, cli.Truncate(name, nameW))),
			moneyStyle.Render(fmt.Sprintf("%*s", moneyW, cli.FormatMoney(p.Spent))),
			dimStyle.Render(fmt.Sprintf("%6s", cli.FormatPercent(share))),
			barStyle.Render(cli.RenderHorizontalBar(p.Spent.InexactFloat64(), peak, barW)))
	}
	if len(a.stats.ByPurpose) == 0 {
		b.WriteString(dimStyle.Render("No spending logged for this budget.") + "\n")
	}
	b.WriteString("\n")
	b.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, "Total")) + " " +
		moneyStyle.Render(fmt.Sprintf("%*s", moneyW, cli.FormatMoney(a.stats.Total))))

	return components.ContentCard("Spending by purpose", b.String(), cw, true)
}

func (a App) renderBudgetsTab(cw, h int) string {
	t := theme.Active
	body := a.list.View(components.CardInnerWidth(cw), max(h-5, 3)) + "\n\n" +
		lipgloss.NewStyle().Foreground(t.TextDim).Render("j/k move · enter show · n new budget")
	return components.ContentCard(fmt.Sprintf("Budgets (%d)", a.list.Len()), body, cw, true)
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
