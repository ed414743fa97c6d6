package cli

import (
	"github.com/dataworks/dataworks/engine/infra/server"
	"github.com/dataworks/dataworks/pkg/config"
	"github.com/spf13/cobra"
)

func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			invoker, err := newInvoker(config.FromContext(cmd.Context()))
			if err != nil {
				return err
			}
			return writeTaskList(cmd.OutOrStdout(), outputFormat(cmd), server.SummarizeTasks(invoker.Registry()))
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output format (json, text)")
	return cmd
}
