// Package logger builds the genesis zap loggers and carries the per-request
// logger (tagged with request_id) from the HTTP edge into the pipeline.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns the logger for a config environment. prod writes JSON
// lines for the log collector; local, dev and docker write a coloured
// console; test discards everything. A non-empty level (debug, info, warn,
// error) replaces the environment's default, as set by logging.level.
func NewLogger(env string, level ...string) (*zap.Logger, error) {
	cfg, err := configFor(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return zap.NewNop(), nil
	}

	if len(level) > 0 && level[0] != "" {
		lvl, err := zapcore.ParseLevel(level[0])
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level[0], err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l.Named("genesis"), nil
}

// configFor returns nil for the test environment.
func configFor(env string) (*zap.Config, error) {
	switch env {
	case "prod":
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return &cfg, nil
	case "local", "dev", "docker":
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return &cfg, nil
	case "test":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}
}
