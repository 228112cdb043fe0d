package cmd

import (
	"time"

	"github.com/theirongolddev/thriftify/internal/dashboard"
	"github.com/theirongolddev/thriftify/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagSpendDate    string
	flagSpendAmount  string
	flagSpendPurpose string
)

var spendCmd = &cobra.Command{
	Use:   "spend",
	Short: "Log a spending entry",
	Example: `  thriftify spend --amount 12.50 --purpose groceries
  thriftify spend --date 2024-03-02 --amount 40`,
	RunE: runSpend,
}

func init() {
	spendCmd.Flags().StringVar(&flagSpendDate, "date", "", "Date spent, YYYY-MM-DD (default today)")
	spendCmd.Flags().StringVar(&flagSpendAmount, "amount", "", "Amount spent")
	spendCmd.Flags().StringVar(&flagSpendPurpose, "purpose", "", "What the money went to")
	_ = spendCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(spendCmd)
}

func runSpend(c *cobra.Command, _ []string) error {
	date := flagSpendDate
	if date == "" {
		date = time.Now().Format(model.DateLayout)
	}

	ctrl, err := newController(&textChart{}, discardSelector{}, c.ErrOrStderr())
	if err != nil {
		return err
	}
	return ctrl.Dispatch(commandContext(c), dashboard.Event{
		Kind: dashboard.SpendingSubmitted,
		Spending: dashboard.SpendingForm{
			Date:    date,
			Spent:   flagSpendAmount,
			Purpose: flagSpendPurpose,
		},
	})
}
