package commands

import (
	"github.com/spf13/cobra"

	"github.com/meisai-dev/meisai/internal/classify"
)

func newRulesCommand(a *app) *cobra.Command {
	var rules string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the active rule book as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.classifier(rules)
			if err != nil {
				return err
			}
			return classify.WriteRuleBook(cmd.OutOrStdout(), c.RuleBook())
		},
	}

	cmd.Flags().StringVar(&rules, "rules", "", "rule book YAML (default: configured or built-in)")

	return cmd
}
