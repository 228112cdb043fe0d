package tui

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/theirongolddev/thriftify/internal/dashboard"
	"github.com/theirongolddev/thriftify/internal/model"
	"github.com/theirongolddev/thriftify/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupValues holds the first-run wizard answers.
type setupValues struct {
	ServerURL string
	Theme     string
}

func (a *App) openBudgetForm() {
	a.budget = &dashboard.BudgetForm{StartDate: time.Now().Format(model.DateLayout)}
	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Start date").
				Description("YYYY-MM-DD").
				Value(&a.budget.StartDate),
			huh.NewInput().
				Title("Duration").
				Description("Days").
				Placeholder("30").
				Value(&a.budget.Duration),
			huh.NewInput().
				Title("Budget").
				Placeholder("300.00").
				Value(&a.budget.Amount),
		).Title("New budget"),
	).WithShowHelp(true).WithWidth(a.formWidth())
	a.formKind = formBudget
}

func (a *App) openSpendingForm() {
	a.spending = &dashboard.SpendingForm{Date: time.Now().Format(model.DateLayout)}
	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Date").
				Description("YYYY-MM-DD").
				Value(&a.spending.Date),
			huh.NewInput().
				Title("Spent").
				Placeholder("12.50").
				Value(&a.spending.Spent),
			huh.NewInput().
				Title("Purpose").
				Placeholder("groceries").
				CharLimit(80).
				Value(&a.spending.Purpose),
		).Title("Log spending"),
	).WithShowHelp(true).WithWidth(a.formWidth())
	a.formKind = formSpending
}

func (a *App) openSetupForm() {
	a.setup = &setupValues{
		ServerURL: a.cfg.Client.ServerURL,
		Theme:     a.cfg.Appearance.Theme,
	}
	if _, ok := theme.Lookup(a.setup.Theme); !ok {
		a.setup.Theme = theme.FlexokiDark.Name
	}

	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themes = append(themes, huh.NewOption(t.Name, t.Name))
	}

	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to thriftify!").
				Description("Let's point the dashboard at your budget server."),
			huh.NewInput().
				Title("Server URL").
				Value(&a.setup.ServerURL).
				Validate(validateServerURL),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&a.setup.Theme),
		),
	).WithShowHelp(true).WithWidth(a.formWidth())
	a.formKind = formSetup
}

func (a App) formWidth() int {
	if a.width == 0 {
		return 60
	}
	return min(a.width, 70)
}

func validateServerURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("enter an http(s) URL such as http://127.0.0.1:5000")
	}
	return nil
}
