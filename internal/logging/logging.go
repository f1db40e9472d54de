// Package logging builds the zap logger used for diagnostics.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates a logger for the given level (debug, info, warn, error).
// Debug selects zap's development config, everything else the
// production one. format overrides the encoder ("console" or "json");
// empty keeps the config's default. Output goes to stderr.
func New(level, format string) (*zap.Logger, error) {
	var cfg zap.Config

	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	switch format {
	case "":
	case "console", "json":
		cfg.Encoding = format
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}
