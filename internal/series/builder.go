// Package series turns a budget and its spending events into chart series.
package series

import (
	"errors"
	"fmt"
	"sort"

	"github.com/theirongolddev/thriftify/internal/model"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeDuration is returned when a budget reports fewer than zero days.
	ErrNegativeDuration = errors.New("series: negative duration")
	// ErrDurationTooLong is returned for budgets longer than model.MaxDuration.
	ErrDurationTooLong = errors.New("series: duration too long")
)

// ChartSeries is the day-indexed data behind the planned vs. actual chart.
// All four slices have the same length, duration+1; index i is "Day i".
type ChartSeries struct {
	Labels   []string
	Ideal    []decimal.Decimal // cumulative linear target, 2dp; the last point is the exact amount
	Actual   []decimal.Decimal // recorded spend per day, 0 where none
	Purposes []string          // purpose annotation, "" where none
}

// Len returns the number of points in the series.
func (s ChartSeries) Len() int {
	return len(s.Labels)
}

// PurposeAt returns the purpose recorded at index i, or "" if none.
func (s ChartSeries) PurposeAt(i int) string {
	if i < 0 || i >= len(s.Purposes) {
		return ""
	}
	return s.Purposes[i]
}

// Build computes the chart series for a budget of the given duration and
// amount. Events outside [0, duration] are dropped. When several events share
// a day, the last one wins.
func Build(duration int, amount decimal.Decimal, events []model.SpendingEvent) (ChartSeries, error) {
	if duration < 0 {
		return ChartSeries{}, fmt.Errorf("%w: %d", ErrNegativeDuration, duration)
	}
	if duration > model.MaxDuration {
		return ChartSeries{}, fmt.Errorf("%w: %d", ErrDurationTooLong, duration)
	}

	n := duration + 1
	s := ChartSeries{
		Labels:   make([]string, n),
		Ideal:    make([]decimal.Decimal, n),
		Actual:   make([]decimal.Decimal, n),
		Purposes: make([]string, n),
	}

	days := decimal.NewFromInt(int64(duration))
	for i := 0; i < n; i++ {
		s.Labels[i] = fmt.Sprintf("Day %d", i)
		s.Actual[i] = decimal.Zero
		if duration == 0 {
			// A zero-day budget has no pace to plot.
			s.Ideal[i] = decimal.Zero
			continue
		}
		v := amount.Mul(decimal.NewFromInt(int64(i))).Div(days).Round(2)
		if i == duration || (!amount.IsNegative() && v.GreaterThan(amount)) {
			v = amount
		}
		s.Ideal[i] = v
	}

	for _, ev := range events {
		if ev.Day < 0 || ev.Day > duration {
			continue
		}
		s.Actual[ev.Day] = ev.Amount
		s.Purposes[ev.Day] = ev.Purpose
	}

	return s, nil
}

// Preview returns the series for a budget that has no spending yet.
func Preview(duration int, amount decimal.Decimal) (ChartSeries, error) {
	return Build(duration, amount, nil)
}

// Floats converts decimal values to float64 for plotting.
func Floats(ds []decimal.Decimal) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = d.InexactFloat64()
	}
	return out
}

// Totals sums spending per purpose, largest first. Ties sort by purpose.
func Totals(events []model.SpendingEvent) ([]model.PurposeTotal, decimal.Decimal) {
	sums := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, ev := range events {
		sums[ev.Purpose] = sums[ev.Purpose].Add(ev.Amount)
		total = total.Add(ev.Amount)
	}

	out := make([]model.PurposeTotal, 0, len(sums))
	for purpose, spent := range sums {
		out = append(out, model.PurposeTotal{Purpose: purpose, Spent: spent})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Spent.Cmp(out[j].Spent); c != 0 {
			return c > 0
		}
		return out[i].Purpose < out[j].Purpose
	})
	return out, total
}
