// Package model holds the budget and spending records exchanged with the backend.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// DateLayout is the calendar date format used by the forms and the backend.
const DateLayout = "2006-01-02"

// MaxDuration is the longest budget, in days, that is accepted.
const MaxDuration = 36500

// Budget is a spending allowance over a fixed number of days.
type Budget struct {
	ID        string          `json:"_id"`
	StartDate string          `json:"start_date"` // passed through literally
	Duration  int             `json:"duration"`   // days
	Amount    decimal.Decimal `json:"budget"`
}

// SpendingEvent is a single expenditure tied to a day offset within a budget.
type SpendingEvent struct {
	Day     int             `json:"day"`
	Amount  decimal.Decimal `json:"amount"`
	Purpose string          `json:"purpose"`
}

// Dashboard is the payload served by /dashboardData.
type Dashboard struct {
	Budget     Budget          `json:"budget"`
	Spending   []SpendingEvent `json:"spending"`
	AllBudgets []Budget        `json:"allBudgets"`
}

// NewBudget is the /createBudget request body.
type NewBudget struct {
	StartDate string          `json:"startDate"`
	Duration  int             `json:"duration"`
	Amount    decimal.Decimal `json:"budget"`
}

// NewSpending is the /spendingBudget request body.
type NewSpending struct {
	Date    string          `json:"date"`
	Spent   decimal.Decimal `json:"spent"`
	Purpose string          `json:"purpose"`
}

// PurposeTotal is the summed spending for one purpose label.
type PurposeTotal struct {
	Purpose string          `json:"purpose"`
	Spent   decimal.Decimal `json:"spent"`
}

// Stats is the payload served by /stats.
type Stats struct {
	Budget    Budget          `json:"budget"`
	ByPurpose []PurposeTotal  `json:"byPurpose"`
	Total     decimal.Decimal `json:"total"`
}

// Label renders the selector entry for a budget.
func (b Budget) Label() string {
	return fmt.Sprintf("Start Date: %s Duration: %d Amount: $%s", b.StartDate, b.Duration, b.Amount.String())
}

// Start parses StartDate, accepting the layouts the backend is known to emit.
func (b Budget) Start() (time.Time, bool) {
	return ParseDate(b.StartDate)
}

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	time.RFC1123,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate parses a calendar date in any of the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UnmarshalJSON decodes a budget leniently. Older backends store raw form
// strings, so numeric fields may be quoted and ids/dates may be extended JSON.
func (b *Budget) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"_id"`
		StartDate json.RawMessage `json:"start_date"`
		Duration  json.RawMessage `json:"duration"`
		Amount    decimal.Decimal `json:"budget"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := parseID(raw.ID)
	if err != nil {
		return fmt.Errorf("budget _id: %w", err)
	}
	start, err := parseDateField(raw.StartDate)
	if err != nil {
		return fmt.Errorf("budget start_date: %w", err)
	}
	days, err := parseDays(raw.Duration)
	if err != nil {
		return fmt.Errorf("budget duration: %w", err)
	}

	*b = Budget{ID: id, StartDate: start, Duration: days, Amount: raw.Amount}
	return nil
}

// parseID accepts "abc" or {"$oid": "abc"}.
func parseID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var oid struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(raw, &oid); err != nil {
		return "", err
	}
	return oid.OID, nil
}

// parseDateField accepts a plain string or {"$date": millis|string}.
func parseDateField(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var ext struct {
		Date json.RawMessage `json:"$date"`
	}
	if err := json.Unmarshal(raw, &ext); err != nil {
		return "", err
	}
	if err := json.Unmarshal(ext.Date, &s); err == nil {
		return s, nil
	}
	var ms int64
	if err := json.Unmarshal(ext.Date, &ms); err != nil {
		return "", fmt.Errorf("unrecognized $date %s", ext.Date)
	}
	return time.UnixMilli(ms).UTC().Format(DateLayout), nil
}

// parseDays accepts 30, 30.0 or "30". Fractions and counts beyond
// MaxDuration in either direction are rejected.
func parseDays(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f != math.Trunc(f) || math.Abs(f) > MaxDuration {
			return 0, fmt.Errorf("not a day count: %s", raw)
		}
		n = int(f)
	} else {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		if n, err = strconv.Atoi(strings.TrimSpace(s)); err != nil {
			return 0, fmt.Errorf("not a day count: %q", s)
		}
	}
	if n > MaxDuration || n < -MaxDuration {
		return 0, fmt.Errorf("day count %d out of range", n)
	}
	return n, nil
}
