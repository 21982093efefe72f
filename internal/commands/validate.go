package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerprep/internal/config"
	"github.com/cleared-dev/ledgerprep/internal/ledger"
)

func newValidateCommand() *cobra.Command {
	var cfgPath string
	var base string
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "validate <ledger.csv>",
		Short: "Check a written ledger against its invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Base currency and rules come from the project config when there
			// is one; explicit flags win.
			cfg, err := validateConfig(cfgPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if cfg != nil {
				if !cmd.Flags().Changed("base") {
					base = cfg.BaseCurrency
				}
				if !cmd.Flags().Changed("rules") {
					rulesPath = cfg.RulesFile
				}
			}

			recs, err := ledger.ReadFile(args[0])
			if err != nil {
				return err
			}
			rules, err := loadRules(rulesPath)
			if err != nil {
				return err
			}

			problems := ledger.Validate(recs, ledger.Options{BaseCurrency: base, Vocabulary: rules.Vocabulary()})
			out := cmd.OutOrStdout()
			for _, p := range problems {
				fmt.Fprintln(out, p.Error())
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d violations in %d records", len(problems), len(recs))
			}
			fmt.Fprintf(out, "%d records OK\n", len(recs))
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", config.FileName, "config file supplying base currency and rules")
	cmd.Flags().StringVar(&base, "base", "EUR", "expected currency of every record (overrides config)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "category rules file (overrides config; default: built-in rules)")

	return cmd
}

// validateConfig loads the project config. A missing file is only an error
// when it was named explicitly.
func validateConfig(path string, explicit bool) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil, nil
	}
	return loadConfig(path)
}
