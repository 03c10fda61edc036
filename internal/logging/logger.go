package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	// OutputPaths defaults to stdout. The local shell logs to stderr so
	// that log lines never mix with command output.
	OutputPaths []string
}

// New creates a logger. Development mode writes colored console lines
// with stack traces on warnings; otherwise it writes JSON.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.MessageKey = "message"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.DisableStacktrace = true
	zapCfg.Sampling = nil
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}
	return zapCfg.Build()
}

// ForSession returns a child logger tagged with a terminal session id.
func ForSession(log *zap.Logger, sessionID string) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log.With(zap.String("session_id", sessionID))
}

// ForConnection tags a session logger with the socket serving it.
func ForConnection(log *zap.Logger, sessionID, connectionID string) *zap.Logger {
	return ForSession(log, sessionID).With(zap.String("connection_id", connectionID))
}

// parseLevel converts string level to zapcore.Level. Empty means info.
func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}
