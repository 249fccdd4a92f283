// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the diagnostic logger shared by every command.
// Progress output meant for the operator is written separately, to the
// io.Writer each stage receives; this logger carries skipped records,
// replay warnings, and configuration notices to stderr.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

const defaultLevel = "warn"

// New returns a zap logger for cfg. An empty level means warn; an empty
// format means console.
func New(cfg types.LogConfig) (*zap.Logger, error) {
	levelName := cfg.Level
	if levelName == "" {
		levelName = defaultLevel
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", levelName, err)
	}

	var zc zap.Config
	switch cfg.Format {
	case types.LogConsole, "":
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	case types.LogJSON:
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
	default:
		return nil, fmt.Errorf("unsupported log format %q: use console or json", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
