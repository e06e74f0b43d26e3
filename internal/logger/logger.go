// Package logger wraps zap behind the small interface the engine components depend on.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface used across the engine.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field is a key/value pair attached to a log entry.
type Field = zap.Field

var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Bool     = zap.Bool
	Err      = zap.Error
	Duration = zap.Duration
)

type Config struct {
	Level       string   `yaml:"level"`
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
}

type zapLogger struct {
	l *zap.Logger
}

func New(cfg Config) (Logger, error) {
	zc := zap.NewProductionConfig()
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zc.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}
	if cfg.Development {
		zc.Sampling = nil
	}

	z, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &zapLogger{l: z}, nil
}

// FromZap adapts an existing zap logger (zaptest observers in tests).
func FromZap(z *zap.Logger) Logger {
	return &zapLogger{l: z}
}

func NewNop() Logger {
	return &zapLogger{l: zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (z *zapLogger) Debug(msg string, fields ...Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...Field) { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...Field) { z.l.Error(msg, fields...) }

func (z *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{l: z.l.With(fields...)}
}

func (z *zapLogger) Sync() error { return z.l.Sync() }
