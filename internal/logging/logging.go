// Package logging sets up the service's structured logger. Each pipeline
// component gets its own named sub-logger (txstream, batcher, detector,
// dedup, validator, publisher) via zap's Named convention rather than bare
// log.Printf prefixes; the supervisor logs through the root logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the root logger at the given level (one of "debug", "info",
// "warn", "error"; unrecognized values fall back to "info").
func New(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}
	return logger, nil
}

// Named returns a sub-logger tagged with the given component name.
func Named(root *zap.Logger, component string) *zap.Logger {
	return root.Named(component)
}
