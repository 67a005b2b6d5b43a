package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meisai-dev/meisai/internal/diagnosis"
	"github.com/meisai-dev/meisai/internal/importer"
	"github.com/meisai-dev/meisai/internal/ledger"
	"github.com/meisai-dev/meisai/internal/plparse"
)

func newEvaluateCommand(a *app) *cobra.Command {
	var textPath, csvPath, rules string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a P&L against industry benchmarks",
		Long: `Evaluate extracts revenue and cost items from a free-text P&L and scores
them against the configured benchmarks. Pass --text - to read the P&L from
standard input.

With --csv the report also carries a cross-check against that bank
statement. With --csv alone the statement itself is diagnosed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if textPath == "" && csvPath == "" {
				return errors.New("at least one of --text or --csv is required")
			}

			var bank *ledger.Ledger
			if csvPath != "" {
				c, err := a.classifier(rules)
				if err != nil {
					return err
				}
				records, err := importer.ParseFile(importer.NewBankParser(c, a.log), csvPath)
				if err != nil {
					return err
				}
				bank = ledger.New(records)
			}

			var report *diagnosis.Report
			if textPath == "" {
				report = diagnosis.Diagnose(bank, &a.cfg.Diagnosis)
			} else {
				text, err := readText(cmd.InOrStdin(), textPath)
				if err != nil {
					return err
				}
				report, err = diagnosis.Evaluate(plparse.Extract(text), bank, &a.cfg.Diagnosis)
				if err != nil {
					return err
				}
			}

			a.log.Debug("evaluated", "source", report.Source, "score", report.Score, "primary_cause", report.PrimaryCause)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVar(&textPath, "text", "", "P&L text file, or - for stdin")
	cmd.Flags().StringVar(&csvPath, "csv", "", "bank statement CSV")
	cmd.Flags().StringVar(&rules, "rules", "", "rule book YAML for --csv (default: configured or built-in)")

	return cmd
}

func readText(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading P&L text: %w", err)
	}
	return string(data), nil
}
