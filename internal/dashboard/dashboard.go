// Package dashboard drives the budget chart: it loads budgets and spending
// from the backend, rebuilds the chart series and handles the create-budget
// and log-spending forms.
package dashboard

import (
	"context"
	"errors"

	"github.com/theirongolddev/thriftify/internal/model"
)

// User-facing notification texts.
const (
	MsgBudgetCreated  = "Budget Created Successfully!"
	MsgBudgetFailed   = "Cannot Create Budget."
	MsgSpendingLogged = "Spending Logged Successfully!"
	MsgSpendingFailed = "Error, Spending Not Logged."
	MsgInvalidInput   = "Please provide valid data."
)

// ErrInvalidInput is returned when a form fails client-side parsing.
var ErrInvalidInput = errors.New("dashboard: invalid input")

// Level classifies a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	}
	return "info"
}

// API is the backend the controller talks to.
type API interface {
	Dashboard(ctx context.Context, budgetID string) (*model.Dashboard, error)
	CreateBudget(ctx context.Context, b model.NewBudget) error
	LogSpending(ctx context.Context, s model.NewSpending) error
}

// TooltipFunc renders the tooltip lines for the point at index whose plotted
// value is raw.
type TooltipFunc func(raw float64, index int) []string

// Chart is a two-series line chart widget. Implementations must not invoke
// the tooltip from within SetData or Update.
type Chart interface {
	SetData(labels []string, planned, actual []float64)
	SetTooltip(fn TooltipFunc)
	Update()
}

// Selector is the list of budgets the user can switch between.
type Selector interface {
	Has(id string) bool
	Append(id, label string)
}

// Notifier shows non-blocking messages to the user.
type Notifier interface {
	Notify(level Level, msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, msg string)

func (f NotifierFunc) Notify(level Level, msg string) { f(level, msg) }

// BudgetForm holds the raw create-budget form fields.
type BudgetForm struct {
	StartDate string
	Duration  string
	Amount    string
}

// SpendingForm holds the raw log-spending form fields.
type SpendingForm struct {
	Date    string
	Spent   string
	Purpose string
}
