package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/theirongolddev/thriftify/internal/client"
	"github.com/theirongolddev/thriftify/internal/logger"
	"github.com/theirongolddev/thriftify/internal/model"
	"github.com/theirongolddev/thriftify/internal/series"

	"github.com/shopspring/decimal"
)

// Option is a budget entry that has been added to the selector.
type Option struct {
	ID    string
	Label string
}

// State is the controller's view of the dashboard.
type State struct {
	SelectedID string // "" lets the backend pick its default budget
	Active     model.Budget
	Loaded     bool
	Series     series.ChartSeries // what the chart currently shows
	Confirmed  series.ChartSeries // last series built from a server response
	Options    []Option
	LastError  error
}

// Controller owns the dashboard state and keeps the chart and selector in
// sync with the backend. It is safe for concurrent use.
type Controller struct {
	api      API
	chart    Chart
	selector Selector
	notifier Notifier

	mu      sync.RWMutex
	state   State
	issued  uint64 // last refresh ticket handed out
	applied uint64 // ticket of the refresh the state reflects
}

// New returns a controller and installs its tooltip on chart.
// A nil notifier drops notifications.
func New(api API, chart Chart, selector Selector, notifier Notifier) *Controller {
	if notifier == nil {
		notifier = NotifierFunc(func(Level, string) {})
	}
	c := &Controller{
		api:      api,
		chart:    chart,
		selector: selector,
		notifier: notifier,
	}
	chart.SetTooltip(c.Tooltip)
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := c.state
	st.Options = append([]Option(nil), c.state.Options...)
	return st
}

// Selected returns the id of the selected budget.
func (c *Controller) Selected() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.SelectedID
}

// Refresh loads the dashboard for budgetID ("" for the backend default),
// adds unseen budgets to the selector and redraws the chart. On failure the
// chart and selector are left as they were.
func (c *Controller) Refresh(ctx context.Context, budgetID string) error {
	log := logger.FromContext(ctx)

	c.mu.Lock()
	c.issued++
	ticket := c.issued
	c.mu.Unlock()

	d, err := c.api.Dashboard(ctx, budgetID)
	if err != nil {
		return c.fail(ctx, "refresh", err, "Error: "+err.Error())
	}
	s, err := series.Build(d.Budget.Duration, d.Budget.Amount, d.Spending)
	if err != nil {
		return c.fail(ctx, "refresh", err, "Error: "+err.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ticket < c.applied {
		log.Debug("discarding superseded refresh", "ticket", ticket, "applied", c.applied, "budget", budgetID)
		return nil
	}
	c.applied = ticket

	for _, b := range d.AllBudgets {
		if b.ID == "" || c.selector.Has(b.ID) {
			continue
		}
		label := b.Label()
		c.selector.Append(b.ID, label)
		c.state.Options = append(c.state.Options, Option{ID: b.ID, Label: label})
	}

	c.pushLocked(s)
	c.state.SelectedID = budgetID
	c.state.Active = d.Budget
	c.state.Loaded = true
	c.state.Confirmed = s
	c.state.LastError = nil

	log.Debug("dashboard refreshed", "budget", d.Budget.ID, "days", d.Budget.Duration, "events", len(d.Spending))
	return nil
}

// CreateBudget validates the form, previews the new budget on the chart and
// submits it. On failure the chart returns to the last confirmed series.
func (c *Controller) CreateBudget(ctx context.Context, form BudgetForm) error {
	nb, err := form.parse()
	if err != nil {
		logger.FromContext(ctx).Debug("create budget: invalid form", "error", err)
		c.notifier.Notify(LevelError, MsgInvalidInput)
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	preview, err := series.Preview(nb.Duration, nb.Amount)
	if err == nil {
		c.mu.Lock()
		c.pushLocked(preview)
		c.mu.Unlock()
	}

	if err := c.api.CreateBudget(ctx, nb); err != nil {
		c.mu.Lock()
		c.pushLocked(c.state.Confirmed)
		c.mu.Unlock()
		return c.fail(ctx, "create budget", err, mutationFailure(err, MsgBudgetFailed))
	}

	c.notifier.Notify(LevelSuccess, MsgBudgetCreated)
	return c.Refresh(ctx, c.Selected())
}

// LogSpending validates the form and submits the entry for the active budget.
func (c *Controller) LogSpending(ctx context.Context, form SpendingForm) error {
	ns, err := form.parse()
	if err != nil {
		logger.FromContext(ctx).Debug("log spending: invalid form", "error", err)
		c.notifier.Notify(LevelError, MsgInvalidInput)
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := c.api.LogSpending(ctx, ns); err != nil {
		return c.fail(ctx, "log spending", err, mutationFailure(err, MsgSpendingFailed))
	}

	c.notifier.Notify(LevelSuccess, MsgSpendingLogged)
	return c.Refresh(ctx, c.Selected())
}

// Tooltip renders the hover lines for a chart point.
func (c *Controller) Tooltip(raw float64, index int) []string {
	return []string{
		"Amount: $" + strconv.FormatFloat(raw, 'f', -1, 64),
		"Purpose: " + c.PurposeAt(index),
	}
}

// PurposeAt returns the purpose recorded for day index of the shown series.
func (c *Controller) PurposeAt(index int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Series.PurposeAt(index)
}

// pushLocked sends s to the chart and redraws. c.mu must be held.
func (c *Controller) pushLocked(s series.ChartSeries) {
	c.state.Series = s
	c.chart.SetData(s.Labels, series.Floats(s.Ideal), series.Floats(s.Actual))
	c.chart.Update()
}

func (c *Controller) fail(ctx context.Context, op string, err error, msg string) error {
	logger.FromContext(ctx).Error("dashboard "+op+" failed", "error", err)

	c.mu.Lock()
	c.state.LastError = err
	c.mu.Unlock()

	c.notifier.Notify(LevelError, msg)
	return fmt.Errorf("dashboard: %s: %w", op, err)
}

// mutationFailure picks the message for a rejected or undelivered request.
func mutationFailure(err error, rejected string) string {
	var se *client.StatusError
	if errors.As(err, &se) {
		return rejected
	}
	return "Error: " + err.Error()
}

func (f BudgetForm) parse() (model.NewBudget, error) {
	days, err := strconv.Atoi(strings.TrimSpace(f.Duration))
	if err != nil {
		return model.NewBudget{}, fmt.Errorf("duration %q: not a whole number", f.Duration)
	}
	if days < 0 || days > model.MaxDuration {
		return model.NewBudget{}, fmt.Errorf("duration %d: out of range", days)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(f.Amount))
	if err != nil {
		return model.NewBudget{}, fmt.Errorf("amount %q: not a number", f.Amount)
	}
	return model.NewBudget{
		StartDate: strings.TrimSpace(f.StartDate),
		Duration:  days,
		Amount:    amount,
	}, nil
}

func (f SpendingForm) parse() (model.NewSpending, error) {
	date := strings.TrimSpace(f.Date)
	if date == "" {
		return model.NewSpending{}, errors.New("date is empty")
	}
	spent, err := decimal.NewFromString(strings.TrimSpace(f.Spent))
	if err != nil {
		return model.NewSpending{}, fmt.Errorf("spent %q: not a number", f.Spent)
	}
	return model.NewSpending{Date: date, Spent: spent, Purpose: f.Purpose}, nil
}
