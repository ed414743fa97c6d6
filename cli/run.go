package cli

import (
	"fmt"

	"github.com/dataworks/dataworks/pkg/config"
	"github.com/spf13/cobra"
)

func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <task-id>",
		Short: "Run a task by id or alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := outputFormat(cmd)
			invoker, err := newInvoker(config.FromContext(cmd.Context()))
			if err != nil {
				return err
			}
			envelope, err := invoker.Run(cmd.Context(), args[0])
			if err != nil {
				writeFailure(cmd.ErrOrStderr(), format, err)
				return err
			}
			if format == OutputFormatJSON {
				return writeJSON(cmd.OutOrStdout(), envelope)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(envelope.Message))
			return err
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output format (json, text)")
	cmd.Flags().String("git-backend", "", "Git backend for clone_and_commit (cli, gogit)")
	return cmd
}
