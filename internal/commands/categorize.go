package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCategorizeCommand() *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "categorize <description...>",
		Short: "Show which category a description gets and why",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(rulesPath)
			if err != nil {
				return err
			}

			m := rules.Explain(strings.Join(args, " "))
			if m.Pattern == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (no rule matched)\n", m.Category)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (pattern %q)\n", m.Category, m.Pattern)
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "category rules file (default: built-in rules)")

	return cmd
}
