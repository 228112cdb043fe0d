package cmd

import (
	"time"

	"github.com/theirongolddev/thriftify/internal/dashboard"
	"github.com/theirongolddev/thriftify/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagCreateStart  string
	flagCreateDays   string
	flagCreateAmount string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a budget",
	Example: `  thriftify create --days 30 --amount 300
  thriftify create --start 2024-03-01 --days 7 --amount 70.50`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&flagCreateStart, "start", "", "Start date, YYYY-MM-DD (default today)")
	createCmd.Flags().StringVar(&flagCreateDays, "days", "", "Duration in days")
	createCmd.Flags().StringVar(&flagCreateAmount, "amount", "", "Budget amount")
	_ = createCmd.MarkFlagRequired("days")
	_ = createCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(createCmd)
}

func runCreate(c *cobra.Command, _ []string) error {
	start := flagCreateStart
	if start == "" {
		start = time.Now().Format(model.DateLayout)
	}

	chart := &textChart{}
	ctrl, err := newController(chart, discardSelector{}, c.ErrOrStderr())
	if err != nil {
		return err
	}
	return ctrl.Dispatch(commandContext(c), dashboard.Event{
		Kind: dashboard.BudgetSubmitted,
		Budget: dashboard.BudgetForm{
			StartDate: start,
			Duration:  flagCreateDays,
			Amount:    flagCreateAmount,
		},
	})
}
