package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/meisai-dev/meisai/internal/buildinfo"
	"github.com/meisai-dev/meisai/internal/classify"
	"github.com/meisai-dev/meisai/internal/config"
	"github.com/meisai-dev/meisai/internal/logger"
)

// app carries the state resolved once per invocation.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *slog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "meisai",
		Short:   "Bank statement classification and business health diagnosis",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./"+config.FileName+" when present)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(
		newInitCommand(),
		newConvertCommand(a),
		newEvaluateCommand(a),
		newServeCommand(a),
		newRulesCommand(a),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Open(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, ok := logger.ParseLevel(a.logLevel); !ok {
			return fmt.Errorf("unknown log level %q", a.logLevel)
		}
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg
	a.log = logger.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	slog.SetDefault(a.log)
	return nil
}

// classifier builds a Classifier from the rules flag, falling back to the
// configured rule book and then the built-in one.
func (a *app) classifier(rulesPath string) (*classify.Classifier, error) {
	if rulesPath == "" {
		rulesPath = a.cfg.Rules
	}
	book, err := classify.LoadRuleBook(rulesPath)
	if err != nil {
		return nil, err
	}
	if rulesPath != "" {
		a.log.Debug("loaded rule book", "path", rulesPath, "rules", book.RuleCount())
	}
	return classify.New(book), nil
}
