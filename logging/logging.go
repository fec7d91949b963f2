// Package logging builds the process logger used by the command line driver.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a production (JSON) or development (console) logger at level,
// one of debug, info, warn, error
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	config := zap.NewProductionConfig()
	if development {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = lvl
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Install builds a logger with New and makes it the global zap logger. The
// returned function restores the previous global and flushes the logger.
func Install(level string, development bool) (*zap.Logger, func(), error) {
	logger, err := New(level, development)
	if err != nil {
		return nil, nil, err
	}
	restore := zap.ReplaceGlobals(logger)
	return logger, func() {
		_ = logger.Sync()
		restore()
	}, nil
}
