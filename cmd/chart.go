package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/theirongolddev/thriftify/internal/cli"
	"github.com/theirongolddev/thriftify/internal/dashboard"

	"github.com/spf13/cobra"
)

var flagChartAll bool

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Print the planned vs. actual spending chart",
	RunE:  runChart,
}

func init() {
	chartCmd.Flags().BoolVarP(&flagChartAll, "all", "a", false, "List every day, not only days with spending")
	rootCmd.AddCommand(chartCmd)
}

// textChart is a dashboard.Chart that keeps the last series for printing.
type textChart struct {
	labels  []string
	planned []float64
	actual  []float64
	tooltip dashboard.TooltipFunc
	updates int
}

func (t *textChart) SetData(labels []string, planned, actual []float64) {
	t.labels, t.planned, t.actual = labels, planned, actual
}

func (t *textChart) SetTooltip(fn dashboard.TooltipFunc) { t.tooltip = fn }

func (t *textChart) Update() { t.updates++ }

// detail returns the tooltip lines for day i.
func (t *textChart) detail(i int) []string {
	if t.tooltip == nil || i >= len(t.actual) {
		return nil
	}
	return t.tooltip(t.actual[i], i)
}

func runChart(c *cobra.Command, _ []string) error {
	out := c.OutOrStdout()
	chart := &textChart{}
	ctrl, err := newController(chart, discardSelector{}, c.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := ctrl.Refresh(commandContext(c), flagBudget); err != nil {
		return err
	}

	st := ctrl.State()
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderTitle("BUDGET "+st.Active.StartDate))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Budget %s over %s\n\n", cli.FormatMoney(st.Active.Amount), cli.FormatDays(st.Active.Duration))
	renderTextChart(out, chart, flagChartAll)
	return nil
}

func renderTextChart(w io.Writer, chart *textChart, all bool) {
	peak := 0.0
	for i := range chart.planned {
		peak = max(peak, chart.planned[i], chart.actual[i])
	}

	fmt.Fprintf(w, "  %s %s\n", cli.PlannedStyle.Render(cli.RenderSparkline(chart.planned, peak)), cli.Muted("budget"))
	fmt.Fprintf(w, "  %s %s\n", cli.ActualStyle.Render(cli.RenderSparkline(chart.actual, peak)), cli.Muted("spending"))
	fmt.Fprintf(w, "  %s\n\n", cli.RenderLegend())

	var rows [][]string
	for i, label := range chart.labels {
		if !all && chart.actual[i] == 0 {
			continue
		}
		row := []string{label, cli.FormatFloatMoney(chart.planned[i])}
		for _, line := range chart.detail(i) {
			_, value, _ := strings.Cut(line, ": ")
			row = append(row, value)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		fmt.Fprintf(w, "  %s\n", cli.Muted("No spending logged yet."))
		return
	}

	fmt.Fprint(w, cli.RenderTable(cli.Table{
		Headers: []string{"Day", "Planned", "Amount", "Purpose"},
		Rows:    rows,
	}))
}
