// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount as dollars with thousands separators.
// e.g., 1234.5 -> "$1,234.50", -3 -> "-$3.00"
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + FormatMoney(d.Neg())
	}
	whole := d.Truncate(0)
	cents := d.Sub(whole).Mul(decimal.NewFromInt(100)).Round(0)
	if cents.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		whole = whole.Add(decimal.NewFromInt(1))
		cents = decimal.Zero
	}
	return fmt.Sprintf("$%s.%02d", humanize.Comma(whole.IntPart()), cents.IntPart())
}

// FormatFloatMoney formats a plotted float value the same way as FormatMoney.
func FormatFloatMoney(f float64) string {
	return FormatMoney(decimal.NewFromFloat(f))
}

// FormatDays formats a day count, e.g. 1 -> "1 day", 30 -> "30 days".
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return humanize.Comma(int64(n)) + " days"
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// Truncate shortens s to at most width runes, marking the cut with "…".
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 {
		return ""
	}
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return strings.TrimRight(string(r[:width-1]), " ") + "…"
}
