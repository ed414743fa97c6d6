package logger

import (
	"fmt"

	"github.com/spf13/pflag"
)

const (
	flagLevel  = "log-level"
	flagJSON   = "log-json"
	flagSource = "log-source"
)

// AddFlags registers the logging flags on a command flag set.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(flagLevel, string(InfoLevel), "Log level (debug, info, warn, error, disabled)")
	flags.Bool(flagJSON, false, "Output logs in JSON format")
	flags.Bool(flagSource, false, "Include source code location in logs")
}

// ConfigFromFlags builds a logger Config from flags registered by AddFlags.
// Unknown levels fall back to info.
func ConfigFromFlags(flags *pflag.FlagSet) (*Config, error) {
	raw, err := flags.GetString(flagLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s flag: %w", flagLevel, err)
	}
	asJSON, err := flags.GetBool(flagJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s flag: %w", flagJSON, err)
	}
	withSource, err := flags.GetBool(flagSource)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s flag: %w", flagSource, err)
	}
	level := LogLevel(raw)
	switch level {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel, DisabledLevel:
	default:
		level = InfoLevel
	}
	return &Config{
		Level:      level,
		JSON:       asJSON,
		AddSource:  withSource,
		TimeFormat: "15:04:05",
	}, nil
}
