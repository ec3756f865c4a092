package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/logging"
)

// NewLogger creates a configured logger based on the application configuration.
// Log level precedence (highest to lowest):
//  1. --log-level flag
//  2. -v/--verbose flag (debug)
//  3. -q/--quiet flag (warn)
//  4. LOG_LEVEL environment variable
//  5. Default (info)
func NewLogger(config *Config) zerolog.Logger {
	level := determineLogLevel(config)

	cfg := logging.DefaultConfig()
	cfg.Level = level
	if config.LogFormat != "" {
		cfg.Format = config.LogFormat
	}
	if config.LogOutput != "" {
		cfg.Output = config.LogOutput
	}
	cfg.NoColor = cfg.NoColor || config.NoColor
	cfg.AddCaller = level == "debug" || level == "trace"
	return logging.NewLoggerFromConfig(cfg)
}

func determineLogLevel(config *Config) string {
	if config.LogLevel != "" {
		validated := validateLogLevel(config.LogLevel)
		if validated != config.LogLevel {
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", config.LogLevel, validated)
		}
		return validated
	}

	if config.Verbose && config.Quiet {
		fmt.Fprintf(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet\n")
		return "warn"
	}
	if config.Verbose {
		return "debug"
	}
	if config.Quiet {
		return "warn"
	}
	return "info"
}

// validateLogLevel returns level if it is known and "info" otherwise.
func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	}
	return "info"
}
