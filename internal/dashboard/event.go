package dashboard

import (
	"context"
	"fmt"
)

// EventKind names a user action the controller reacts to.
type EventKind int

const (
	PageLoaded EventKind = iota
	BudgetSelected
	BudgetSubmitted
	SpendingSubmitted
)

func (k EventKind) String() string {
	switch k {
	case PageLoaded:
		return "page-loaded"
	case BudgetSelected:
		return "budget-selected"
	case BudgetSubmitted:
		return "budget-form-submitted"
	case SpendingSubmitted:
		return "spending-form-submitted"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is a user action. Only the fields matching Kind are read; PageLoaded
// and BudgetSelected read BudgetID, where "" means the latest budget.
type Event struct {
	Kind     EventKind
	BudgetID string
	Budget   BudgetForm
	Spending SpendingForm
}

// Dispatch routes an event to the matching controller operation.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case PageLoaded, BudgetSelected:
		return c.Refresh(ctx, ev.BudgetID)
	case BudgetSubmitted:
		return c.CreateBudget(ctx, ev.Budget)
	case SpendingSubmitted:
		return c.LogSpending(ctx, ev.Spending)
	}
	return fmt.Errorf("dashboard: unknown event %s", ev.Kind)
}
