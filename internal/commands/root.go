package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerprep/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "ledgerprep",
		Short:   "Normalize and enrich bank exports into one ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newCategorizeCommand())
	rootCmd.AddCommand(newSummaryCommand())

	return rootCmd
}
