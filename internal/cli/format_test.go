package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5", "$5.00"},
		{"1234.5", "$1,234.50"},
		{"1000000", "$1,000,000.00"},
		{"99.999", "$100.00"},
		{"-3", "-$3.00"},
		{"0.015", "$0.02"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDays(t *testing.T) {
	if got := FormatDays(1); got != "1 day" {
		t.Errorf("FormatDays(1) = %q", got)
	}
	if got := FormatDays(1500); got != "1,500 days" {
		t.Errorf("FormatDays(1500) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("groceries", 20); got != "groceries" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("weekly groceries", 8); got != "weekly…" {
		t.Errorf("Truncate long = %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Errorf("Truncate zero = %q", got)
	}
}

func TestRenderSparkline_SharedPeak(t *testing.T) {
	got := RenderSparkline([]float64{0, 50, 100}, 100)
	if got != "▁▄█" {
		t.Fatalf("RenderSparkline = %q, want %q", got, "▁▄█")
	}
}

func TestRenderTable_Alignment(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	out := RenderTable(Table{
		Headers: []string{"Purpose", "Spent"},
		Rows: [][]string{
			{"food", "$12.50"},
			{"---"},
			{"Total", "$100.00"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[3], "│ food    │  $12.50 │") {
		t.Errorf("row not aligned: %q", lines[3])
	}
	for _, l := range lines {
		if lipgloss.Width(l) != lipgloss.Width(lines[0]) {
			t.Errorf("ragged line %q", l)
		}
	}
}
