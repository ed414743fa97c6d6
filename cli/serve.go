package cli

import (
	"os/signal"
	"syscall"

	"github.com/dataworks/dataworks/engine/infra/monitoring"
	"github.com/dataworks/dataworks/engine/infra/server"
	"github.com/dataworks/dataworks/pkg/config"
	"github.com/spf13/cobra"
)

func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task catalog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cfg := config.FromContext(ctx)
			invoker, err := newInvoker(cfg)
			if err != nil {
				return err
			}
			mon := monitoring.NewServiceWithFallback(ctx, cfg.Monitoring)
			return server.New(ctx, cfg, invoker, mon).Run(ctx)
		},
	}
	cmd.Flags().String("host", "", "Host to listen on")
	cmd.Flags().Int("port", 0, "Port to listen on")
	return cmd
}
