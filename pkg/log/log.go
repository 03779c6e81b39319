// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface used across the bidder. Fields are
// alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	With(fields ...any) Logger
	Sync() error
}

// zapLogger wraps a zap SugaredLogger
type zapLogger struct {
	log *zap.SugaredLogger
}

// New creates a new logger at info level
func New() Logger {
	return NewWithLevel("info")
}

// NewWithLevel creates a new logger with a specific level
func NewWithLevel(level string) Logger {
	lvl := zapcore.InfoLevel
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "info":
		lvl = zapcore.InfoLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return &noOpLogger{}
	}

	return &zapLogger{log: log.Sugar()}
}

// NoOp returns a no-op logger
func NoOp() Logger {
	return &noOpLogger{}
}

// NoLog is a no-op logger instance
var NoLog = NoOp()

func (l *zapLogger) Debug(msg string, fields ...any) { l.log.Debugw(msg, fields...) }

func (l *zapLogger) Info(msg string, fields ...any) { l.log.Infow(msg, fields...) }

func (l *zapLogger) Warn(msg string, fields ...any) { l.log.Warnw(msg, fields...) }

func (l *zapLogger) Error(msg string, fields ...any) { l.log.Errorw(msg, fields...) }

func (l *zapLogger) With(fields ...any) Logger {
	return &zapLogger{log: l.log.With(fields...)}
}

// Sync flushes any buffered log entries
func (l *zapLogger) Sync() error {
	return l.log.Sync()
}

// noOpLogger is a logger that does nothing
type noOpLogger struct{}

func (n *noOpLogger) Debug(msg string, fields ...any) {}

func (n *noOpLogger) Info(msg string, fields ...any) {}

func (n *noOpLogger) Warn(msg string, fields ...any) {}

func (n *noOpLogger) Error(msg string, fields ...any) {}

func (n *noOpLogger) With(fields ...any) Logger { return n }

func (n *noOpLogger) Sync() error { return nil }
