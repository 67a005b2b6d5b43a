package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meisai-dev/meisai/internal/classify"
	"github.com/meisai-dev/meisai/internal/config"
)

const (
	rulesFileName = "rules.yaml"
	importDirName = "import"
	outputDirName = "out"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter meisai.yaml and rules.yaml",
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

			if err := runInit(absDir, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized meisai project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing meisai.yaml and rules.yaml")

	return cmd
}

func runInit(dir string, force bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if !force {
		if _, err := os.Stat(cfgPath); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", cfgPath, err)
		}
	}

	for _, d := range []string{
		importDirName,
		filepath.Join(importDirName, "processed"),
		outputDirName,
	} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Paths stay relative so the project can be moved.
	cfg := config.Default()
	cfg.Rules = rulesFileName
	cfg.Import.Dir = importDirName
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := classify.SaveRuleBook(filepath.Join(dir, rulesFileName), classify.DefaultRuleBook()); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	return nil
}
