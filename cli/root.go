package cli

import (
	"context"

	"github.com/dataworks/dataworks/pkg/logger"
	"github.com/dataworks/dataworks/pkg/version"
	"github.com/spf13/cobra"
)

const (
	defaultConfigFile = "dataworks.yaml"
	defaultEnvFile    = ".env"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dataworks",
		Short:         "Run sandboxed data tasks",
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
	}
	root.SetContext(context.Background())
	flags := root.PersistentFlags()
	flags.String("config", defaultConfigFile, "Path to the YAML configuration file")
	flags.String("env-file", defaultEnvFile, "Path to the environment variables file")
	flags.String("data-root", "", "Directory every task reads from and writes to")
	logger.AddFlags(flags)
	root.AddCommand(
		ListCmd(),
		RunCmd(),
		ServeCmd(),
	)
	return root
}
