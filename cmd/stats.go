package cmd

import (
	"fmt"

	"github.com/theirongolddev/thriftify/internal/cli"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show spending totals by purpose",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(c *cobra.Command, _ []string) error {
	api, err := newClient()
	if err != nil {
		return err
	}
	st, err := api.Stats(commandContext(c), flagBudget)
	if err != nil {
		return fmt.Errorf("loading stats: %w", err)
	}

	peak := 0.0
	for _, p := range st.ByPurpose {
		peak = max(peak, p.Spent.InexactFloat64())
	}

	rows := make([][]string, 0, len(st.ByPurpose)+2)
	for _, p := range st.ByPurpose {
		name := p.Purpose
		if name == "" {
			name = "(none)"
		}
		share := 0.0
		if st.Total.IsPositive() {
			share = p.Spent.Div(st.Total).InexactFloat64()
		}
		rows = append(rows, []string{
			cli.Truncate(name, 24),
			cli.FormatMoney(p.Spent),
			cli.FormatPercent(share),
			cli.ActualStyle.Render(cli.RenderHorizontalBar(p.Spent.InexactFloat64(), peak, 20)),
		})
	}
	rows = append(rows, []string{"---"}, []string{"Total", cli.FormatMoney(st.Total), "", ""})

	out := c.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderTitle("SPENDING BY PURPOSE"))
	fmt.Fprintf(out, "\n  Budget %s starting %s, %s\n\n",
		cli.FormatMoney(st.Budget.Amount), st.Budget.StartDate, cli.FormatDays(st.Budget.Duration))
	fmt.Fprint(out, cli.RenderTable(cli.Table{
		Headers: []string{"Purpose", "Spent", "Share", ""},
		Rows:    rows,
	}))
	return nil
}
