package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dataworks/dataworks/pkg/config"
	"github.com/dataworks/dataworks/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// SetupGlobalConfig loads the env file, configures logging and attaches the
// resolved configuration and logger to the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	cmd.Flags().AddFlagSet(cmd.PersistentFlags())
	if _, err := loadEnvFile(cmd); err != nil {
		return err
	}
	logCfg, err := logger.ConfigFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	logger.Init(logCfg)
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	flags := make(map[string]any)
	extractCLIFlags(cmd, flags)
	ctx := cmd.Context()
	cfg, err := config.NewLoader().Load(ctx, config.NewYAMLSource(configFile), config.NewFlagSource(flags))
	if err != nil {
		return err
	}
	ctx = logger.ContextWithLogger(ctx, logger.FromContext(context.Background()))
	ctx = config.ContextWithConfig(ctx, cfg)
	cmd.SetContext(ctx)
	return nil
}

// extractCLIFlags maps explicitly set flags onto dotted config paths.
func extractCLIFlags(cmd *cobra.Command, flags map[string]any) {
	getString := func(name string) (any, error) { return cmd.Flags().GetString(name) }
	getInt := func(name string) (any, error) { return cmd.Flags().GetInt(name) }
	flagDefs := []struct {
		flagName string
		key      string
		getter   func(string) (any, error)
	}{
		{"data-root", "data.root", getString},
		{"host", "server.host", getString},
		{"port", "server.port", getInt},
		{"git-backend", "tasks.git.backend", getString},
	}
	for _, def := range flagDefs {
		if cmd.Flags().Lookup(def.flagName) == nil || !cmd.Flags().Changed(def.flagName) {
			continue
		}
		if value, err := def.getter(def.flagName); err == nil {
			flags[def.key] = value
		}
	}
}

// loadEnvFile loads environment variables from the env-file flag. A missing
// file is not an error.
func loadEnvFile(cmd *cobra.Command) (string, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return "", fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile == "" {
		return "", nil
	}
	absPath, err := filepath.Abs(filepath.Clean(envFile))
	if err != nil {
		return "", fmt.Errorf("failed to resolve env file path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return absPath, nil
		}
		return "", fmt.Errorf("failed to stat env file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("env file path '%s' is not a regular file", envFile)
	}
	if err := godotenv.Load(absPath); err != nil {
		return "", fmt.Errorf("failed to load env file %s: %w", absPath, err)
	}
	return absPath, nil
}
