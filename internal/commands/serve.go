package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meisai-dev/meisai/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var addr, rules string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /convert and /evaluate over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			c, err := a.classifier(rules)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(a.cfg, c, a.log).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&rules, "rules", "", "rule book YAML (default: configured or built-in)")

	return cmd
}
