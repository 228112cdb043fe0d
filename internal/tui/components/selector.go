package components

import (
	"strings"
	"sync"

	"github.com/theirongolddev/thriftify/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

type option struct {
	id    string
	label string
}

// BudgetList is the scrollable budget picker. It implements
// dashboard.Selector and is safe for concurrent use.
type BudgetList struct {
	mu        sync.Mutex
	options   []option
	highlight int
	active    string
}

// NewBudgetList returns an empty list.
func NewBudgetList() *BudgetList {
	return &BudgetList{}
}

// Has reports whether an option with id exists.
func (l *BudgetList) Has(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.indexLocked(id) >= 0
}

// Append adds an option at the end of the list.
func (l *BudgetList) Append(id, label string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.options = append(l.options, option{id: id, label: label})
}

// Len returns the number of options.
func (l *BudgetList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.options)
}

// Move shifts the highlight by delta, wrapping around.
func (l *BudgetList) Move(delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.options)
	if n == 0 {
		return
	}
	l.highlight = ((l.highlight+delta)%n + n) % n
}

// Highlighted returns the id under the highlight, or "" when empty.
func (l *BudgetList) Highlighted() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.options) == 0 {
		return ""
	}
	return l.options[l.highlight].id
}

// SetActive marks id as the budget on screen and moves the highlight to it.
func (l *BudgetList) SetActive(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = id
	if i := l.indexLocked(id); i >= 0 {
		l.highlight = i
	}
}

func (l *BudgetList) indexLocked(id string) int {
	for i, o := range l.options {
		if o.id == id {
			return i
		}
	}
	return -1
}

// View renders up to height rows around the highlight.
func (l *BudgetList) View(width, height int) string {
	l.mu.Lock()
	opts := append([]option(nil), l.options...)
	highlight, active := l.highlight, l.active
	l.mu.Unlock()

	t := theme.Active
	if len(opts) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Render("No budgets yet. Press n to create one.")
	}
	height = max(height, 1)

	start := 0
	if highlight >= height {
		start = highlight - height + 1
	}
	end := min(start+height, len(opts))

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Width(width)
	selStyle := rowStyle.Background(t.SurfaceHover).Bold(true)
	markStyle := lipgloss.NewStyle().Foreground(t.Accent)

	var rows []string
	for i := start; i < end; i++ {
		mark := "  "
		if opts[i].id == active {
			mark = markStyle.Render("● ")
		}
		style := rowStyle
		if i == highlight {
			style = selStyle
		}
		rows = append(rows, style.Render(mark+truncateRunes(opts[i].label, width-2)))
	}
	return strings.Join(rows, "\n")
}

func truncateRunes(s string, width int) string {
	r := []rune(s)
	if width <= 0 {
		return ""
	}
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
