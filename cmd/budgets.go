package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/thriftify/internal/cli"

	"github.com/spf13/cobra"
)

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "List all budgets",
	RunE:  runBudgets,
}

func init() {
	rootCmd.AddCommand(budgetsCmd)
}

func runBudgets(c *cobra.Command, _ []string) error {
	api, err := newClient()
	if err != nil {
		return err
	}
	d, err := api.Dashboard(commandContext(c), flagBudget)
	if err != nil {
		return fmt.Errorf("loading budgets: %w", err)
	}

	rows := make([][]string, 0, len(d.AllBudgets))
	for _, b := range d.AllBudgets {
		marker := " "
		if b.ID == d.Budget.ID {
			marker = "●"
		}
		rows = append(rows, []string{
			marker + " " + b.StartDate,
			strconv.Itoa(b.Duration),
			cli.FormatMoney(b.Amount),
			b.ID,
		})
	}

	out := c.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Budgets (%d)", len(rows)),
		Headers: []string{"Start", "Days", "Amount", "ID"},
		Rows:    rows,
	}))
	return nil
}
