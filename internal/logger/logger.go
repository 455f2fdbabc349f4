// Package logger wraps zap behind the small interface the rest of the app logs through.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger used across packages.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)

	DebugObj(msg, key string, obj any)
	InfoObj(msg, key string, obj any)
	WarnObj(msg, key string, obj any)
	ErrorObj(msg, key string, obj any)

	With(fields ...zap.Field) Logger
	Sync() error
}

// Options controls logger construction.
type Options struct {
	Level  string
	Format string // "console" or "json"
}

type zapLogger struct {
	l *zap.Logger
}

// New builds a zap backed Logger.
func New(opts Options) (Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &zapLogger{l: l}, nil
}

// FromZap adapts an existing zap logger, e.g. one backed by zaptest/observer.
func FromZap(l *zap.Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return &zapLogger{l: l}
}

// Ensure returns log, or a NopLogger when log is nil.
func Ensure(log Logger) Logger {
	if log == nil {
		return NopLogger{}
	}
	return log
}

func parseLevel(raw string) (zapcore.Level, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("parse log level %q: %w", raw, err)
	}
	return lvl, nil
}

func (z *zapLogger) Debug(msg string, fields ...zap.Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...zap.Field) { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...zap.Field) { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...zap.Field) { z.l.Error(msg, fields...) }

func (z *zapLogger) DebugObj(msg, key string, obj any) { z.l.Debug(msg, zap.Any(key, obj)) }
func (z *zapLogger) InfoObj(msg, key string, obj any) { z.l.Info(msg, zap.Any(key, obj)) }
func (z *zapLogger) WarnObj(msg, key string, obj any) { z.l.Warn(msg, zap.Any(key, obj)) }
func (z *zapLogger) ErrorObj(msg, key string, obj any) { z.l.Error(msg, zap.Any(key, obj)) }

func (z *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{l: z.l.With(fields...)}
}

func (z *zapLogger) Sync() error { return z.l.Sync() }

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...zap.Field) {}
func (NopLogger) Info(string, ...zap.Field) {}
func (NopLogger) Warn(string, ...zap.Field) {}
func (NopLogger) Error(string, ...zap.Field) {}
func (NopLogger) DebugObj(string, string, any) {}
func (NopLogger) InfoObj(string, string, any) {}
func (NopLogger) WarnObj(string, string, any) {}
func (NopLogger) ErrorObj(string, string, any) {}
func (n NopLogger) With(...zap.Field) Logger { return n }
func (NopLogger) Sync() error { return nil }
