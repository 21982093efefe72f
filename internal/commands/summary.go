package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerprep/internal/ledger"
)

func newSummaryCommand() *cobra.Command {
	var currency string

	cmd := &cobra.Command{
		Use:   "summary <ledger.csv>",
		Short: "Print monthly and per-category totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := ledger.ReadFile(args[0])
			if err != nil {
				return err
			}
			return ledger.Summarize(recs).Write(cmd.OutOrStdout(), currency)
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "EUR", "currency label for totals")

	return cmd
}
