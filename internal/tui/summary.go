package tui

import (
	"time"

	"github.com/theirongolddev/thriftify/internal/model"
	"github.com/theirongolddev/thriftify/internal/series"

	"github.com/shopspring/decimal"
)

// budgetSummary is the headline figures for the active budget.
type budgetSummary struct {
	Amount        decimal.Decimal
	Spent         decimal.Decimal
	Remaining     decimal.Decimal
	PlannedToDate decimal.Decimal
	Elapsed       int     // days since the start date, clamped to the duration
	Duration      int
	Pace          float64 // share of the budget the plan allows by now
	Used          float64 // spent / amount
}

func summarize(b model.Budget, s series.ChartSeries, now time.Time) budgetSummary {
	sum := budgetSummary{Amount: b.Amount, Duration: b.Duration, Spent: decimal.Zero}
	for _, v := range s.Actual {
		sum.Spent = sum.Spent.Add(v)
	}
	sum.Remaining = b.Amount.Sub(sum.Spent)

	if start, ok := b.Start(); ok && b.Duration > 0 {
		days := int(now.Sub(start).Hours() / 24)
		sum.Elapsed = min(max(days, 0), b.Duration)
	}
	if sum.Elapsed < len(s.Ideal) {
		sum.PlannedToDate = s.Ideal[sum.Elapsed]
	}

	switch {
	case b.Duration == 0:
		sum.Pace = 1
	default:
		sum.Pace = float64(sum.Elapsed) / float64(b.Duration)
	}

	switch {
	case b.Amount.IsPositive():
		sum.Used = sum.Spent.Div(b.Amount).InexactFloat64()
	case sum.Spent.IsPositive():
		sum.Used = 1
	}
	return sum
}
