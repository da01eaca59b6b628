package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level, encoding and destination of the logger.
type Config struct {
	Level       string
	File        string
	Development bool
	// Quiet yields a no-op logger when File is empty. The TUI sets it so
	// log lines never land on the terminal it draws.
	Quiet bool
}

// New builds a zap logger. Production loggers write JSON, development
// loggers write console lines.
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Quiet && cfg.File == "" {
		return zap.NewNop(), nil
	}
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
	}
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.File != "" {
		zc.OutputPaths = []string{cfg.File}
		zc.ErrorOutputPaths = []string{cfg.File}
	}
	return zc.Build()
}
