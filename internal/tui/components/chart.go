package components

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/theirongolddev/thriftify/internal/dashboard"
	"github.com/theirongolddev/thriftify/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// LineChart plots the planned budget pace as a line over daily spending bars.
// It implements dashboard.Chart and is safe for concurrent use.
type LineChart struct {
	mu      sync.Mutex
	labels  []string
	planned []float64
	actual  []float64
	tooltip dashboard.TooltipFunc
	cursor  int
	version uint64
	gen     uint64 // bumped by SetData
}

// NewLineChart returns an empty chart.
func NewLineChart() *LineChart {
	return &LineChart{}
}

// SetData replaces the plotted series. The cursor is clamped to the new range.
func (c *LineChart) SetData(labels []string, planned, actual []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = append([]string(nil), labels...)
	c.planned = append([]float64(nil), planned...)
	c.actual = append([]float64(nil), actual...)
	c.cursor = clamp(c.cursor, 0, max(len(c.labels)-1, 0))
	c.gen++
}

// SetTooltip installs the hover text callback.
func (c *LineChart) SetTooltip(fn dashboard.TooltipFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tooltip = fn
}

// Update marks the data as ready to redraw.
func (c *LineChart) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
}

// Version increases on every Update.
func (c *LineChart) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Len returns the number of plotted days.
func (c *LineChart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.labels)
}

// MoveCursor shifts the highlighted day by delta, staying in range.
func (c *LineChart) MoveCursor(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor = clamp(c.cursor+delta, 0, max(len(c.labels)-1, 0))
}

// Cursor returns the highlighted day index.
func (c *LineChart) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Tooltip returns the hover lines for the highlighted day: its label, the
// planned value, then the tooltip callback's lines for the spending value.
// The callback runs without the chart lock, so the snapshot is retaken if
// SetData lands meanwhile; that keeps amount and purpose from one refresh.
func (c *LineChart) Tooltip() []string {
	var lines []string
	for range 3 {
		c.mu.Lock()
		i := c.cursor
		if i >= min(len(c.labels), len(c.planned), len(c.actual)) {
			c.mu.Unlock()
			return nil
		}
		label, planned, actual, fn, gen := c.labels[i], c.planned[i], c.actual[i], c.tooltip, c.gen
		c.mu.Unlock()

		lines = []string{label, fmt.Sprintf("Planned: $%s", formatRaw(planned))}
		if fn != nil {
			lines = append(lines, fn(actual, i)...)
		}

		c.mu.Lock()
		stable := c.gen == gen
		c.mu.Unlock()
		if stable {
			break
		}
	}
	return lines
}

// View renders the chart into a width x height block.
func (c *LineChart) View(width, height int) string {
	c.mu.Lock()
	labels := c.labels
	planned := c.planned
	actual := c.actual
	cursor := c.cursor
	c.mu.Unlock()

	return renderLineChart(labels, planned, actual, cursor, width, height)
}

var blocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

func renderLineChart(labels []string, planned, actual []float64, cursor, width, height int) string {
	t := theme.Active
	surface := lipgloss.NewStyle().Background(t.Surface)
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	n := min(len(labels), len(planned), len(actual))
	if n == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Render("No budget loaded.")
	}
	if height < 3 {
		height = 3
	}

	peak := 0.0
	for i := 0; i < n; i++ {
		peak = math.Max(peak, math.Max(planned[i], actual[i]))
	}
	if peak == 0 {
		peak = 1
	}
	step := chartTickStep(peak)
	ceiling := math.Ceil(peak/step) * step
	ticks := int(math.Round(ceiling / step))
	chartH := height - 2 // x axis and labels
	rowsPerTick := max(chartH/max(ticks, 1), 1)

	yLabelW := max(len(formatChartLabel(ceiling))+1, 4)
	chartW := max(width-yLabelW-1, 5)
	cols, colW := chartColumns(n, chartW)
	cursorCol := nearestColumn(cols, cursor)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		rowTop := ceiling * float64(row) / float64(chartH)
		rowBottom := ceiling * float64(row-1) / float64(chartH)

		label := ""
		if row%rowsPerTick == 0 {
			label = formatChartLabel(rowTop)
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, label)))
		b.WriteString(axisStyle.Render("│"))

		for ci, p := range cols {
			bg := t.Surface
			if ci == cursorCol {
				bg = t.SurfaceHover
			}
			cell := lipgloss.NewStyle().Background(bg)

			switch {
			case planned[p] > rowBottom && planned[p] <= rowTop:
				b.WriteString(cell.Foreground(t.Planned).Render(strings.Repeat("•", colW)))
			case actual[p] >= rowTop:
				b.WriteString(cell.Foreground(t.Actual).Render(strings.Repeat("█", colW)))
			case actual[p] > rowBottom:
				idx := clamp(int((actual[p]-rowBottom)/(rowTop-rowBottom)*8), 1, 8)
				b.WriteString(cell.Foreground(t.Actual).Render(strings.Repeat(string(blocks[idx]), colW)))
			default:
				b.WriteString(cell.Render(strings.Repeat(" ", colW)))
			}
		}
		b.WriteString("\n")
	}

	axisLen := len(cols) * colW
	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("└" + strings.Repeat("─", axisLen)))
	b.WriteString("\n")

	first, last := labels[0], labels[n-1]
	gap := axisLen - len(first) - len(last)
	xLabels := first
	if n > 1 && gap > 0 {
		xLabels += strings.Repeat(" ", gap) + last
	}
	b.WriteString(surface.Render(strings.Repeat(" ", yLabelW+1)))
	b.WriteString(axisStyle.Render(xLabels))

	return b.String()
}

// chartColumns maps chart columns to day indices. Short series get wider
// columns; long ones are sampled.
func chartColumns(n, width int) ([]int, int) {
	if n <= width {
		colW := clamp(width/n, 1, 3)
		cols := make([]int, n)
		for i := range cols {
			cols[i] = i
		}
		return cols, colW
	}
	cols := make([]int, width)
	for c := range cols {
		cols[c] = c * (n - 1) / (width - 1)
	}
	return cols, 1
}

func nearestColumn(cols []int, day int) int {
	best, bestDist := 0, math.MaxInt
	for c, p := range cols {
		d := p - day
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		if v == math.Trunc(v/1e3)*1e3 {
			return fmt.Sprintf("%.0fk", v/1e3)
		}
		return fmt.Sprintf("%.1fk", v/1e3)
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func formatRaw(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
