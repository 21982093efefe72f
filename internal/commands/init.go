package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerprep/internal/categorize"
	"github.com/cleared-dev/ledgerprep/internal/config"
	"github.com/cleared-dev/ledgerprep/internal/gitops"
	"github.com/cleared-dev/ledgerprep/internal/importer"
)

func newInitCommand() *cobra.Command {
	var force bool
	var withGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledgerprep project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			found, err := runInit(absDir, force)
			if err != nil {
				return err
			}
			for _, f := range found {
				fmt.Fprintf(cmd.OutOrStdout(), "Found %s export %s\n", f.Format, f.Name)
			}
			if withGit && !gitops.IsRepo(absDir) {
				if err := gitops.Init(cmd.Context(), absDir); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledgerprep project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	cmd.Flags().BoolVar(&withGit, "git", false, "initialize a git repository for run snapshots")

	return cmd
}

// runInit lays out a project in dir. Exports already in data/ whose names
// identify their format replace the default source paths; those files are
// returned.
func runInit(dir string, force bool) ([]importer.FileInfo, error) {
	cfgPath := filepath.Join(dir, config.FileName)
	if !force {
		if _, err := os.Stat(cfgPath); err == nil {
			return nil, fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("checking config: %w", err)
		}
	}

	// Create directory structure.
	for _, d := range []string{"data", "logs", "rules"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default()
	found, err := adoptExports(cfg, dir)
	if err != nil {
		return nil, err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	if err := categorize.SaveRules(filepath.Join(dir, cfg.RulesFile), categorize.DefaultRules()); err != nil {
		return nil, fmt.Errorf("writing rules: %w", err)
	}

	gitignore := "data/\n*.prom\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return nil, fmt.Errorf("writing .gitignore: %w", err)
	}
	return found, nil
}

// adoptExports points each default source at the first export in data/
// detected as its format.
func adoptExports(cfg *config.Config, dir string) ([]importer.FileInfo, error) {
	files, err := importer.Scan(filepath.Join(dir, "data"))
	if err != nil {
		return nil, err
	}

	var found []importer.FileInfo
	taken := make(map[string]bool)
	for _, f := range files {
		if f.Format == "" || taken[f.Format] {
			continue
		}
		for i := range cfg.Sources {
			if strings.EqualFold(cfg.Sources[i].Format, f.Format) {
				cfg.Sources[i].Path = filepath.ToSlash(filepath.Join("data", f.Name))
				taken[f.Format] = true
				found = append(found, f)
				break
			}
		}
	}
	return found, nil
}
