package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerprep/internal/categorize"
	"github.com/cleared-dev/ledgerprep/internal/config"
	"github.com/cleared-dev/ledgerprep/internal/gitops"
	"github.com/cleared-dev/ledgerprep/internal/logger"
	"github.com/cleared-dev/ledgerprep/internal/metrics"
	"github.com/cleared-dev/ledgerprep/internal/pipeline"
)

func newRunCommand() *cobra.Command {
	var cfgPath string
	var output string
	var commit bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the ledger from the configured exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if output != "" {
				if cfg.Output, err = filepath.Abs(output); err != nil {
					return fmt.Errorf("resolving output: %w", err)
				}
			}
			var commitDir string
			if commit {
				if commitDir, err = filepath.Abs(filepath.Dir(cfgPath)); err != nil {
					return fmt.Errorf("resolving project dir: %w", err)
				}
			}
			return runPipeline(cmd, cfg, commitDir)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", config.FileName, "config file")
	cmd.Flags().StringVar(&output, "output", "", "output ledger (overrides config)")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the ledger and run log to the project's git repository")

	return cmd
}

// loadConfig reads the config, applies environment overrides and resolves
// relative paths against the config's directory.
func loadConfig(path string) (*config.Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg, err := config.Load(absPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Resolve(filepath.Dir(absPath))
	return cfg, nil
}

// loadRules reads path, or returns the built-in rules when path is empty or
// absent.
func loadRules(path string) (*categorize.Ruleset, error) {
	if path == "" {
		return categorize.DefaultRules(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return categorize.DefaultRules(), nil
	}
	return categorize.LoadRules(path)
}

// runPipeline executes one run. When commitDir is set the outputs are
// committed to the git repository there.
func runPipeline(cmd *cobra.Command, cfg *config.Config, commitDir string) error {
	if commitDir != "" && !gitops.IsRepo(commitDir) {
		return fmt.Errorf("%s is not a git repository (run init --git)", commitDir)
	}
	log, err := logger.NewFromConfig(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	rules, err := loadRules(cfg.RulesFile)
	if err != nil {
		return err
	}

	var opts []pipeline.Option
	var collector *metrics.Collector
	if cfg.MetricsFile != "" {
		if collector, err = metrics.New("ledgerprep"); err != nil {
			return err
		}
		opts = append(opts, pipeline.WithRecorder(collector))
	}

	p, err := pipeline.New(cfg, rules, opts...)
	if err != nil {
		return err
	}

	ctx := logger.WithContext(cmd.Context(), log)
	res, runErr := p.Run(ctx)

	if collector != nil {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn().Err(err).Msg("metrics not written")
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s (run %s)\n", len(res.Records), cfg.Output, res.RunID)

	if commitDir == "" {
		return nil
	}
	msg := fmt.Sprintf("ledgerprep: run %s (%d records)", res.RunID, len(res.Records))
	hash, err := gitops.Commit(ctx, commitDir, []string{cfg.Output, cfg.RunLog}, msg, gitops.DefaultAuthor)
	switch {
	case errors.Is(err, gitops.ErrNothingToCommit):
		log.Info().Msg("ledger unchanged, nothing committed")
	case err != nil:
		return err
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Committed %s\n", hash)
	}
	return nil
}
