// Package logging provides structured logging using zap
package logging

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const bytesPerMegabyte = 1024 * 1024

// FileConfig describes the rotating log file written next to stdout
type FileConfig struct {
	Level      string
	Path       string
	MaxBytes   int64
	MaxBackups int
}

// NewDefaultLogger creates a logger with default configuration using zap
func NewDefaultLogger() Logger {
	logger, err := NewZapLogger(DefaultLogConfig())
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default zap logger: %v", err))
	}
	return logger
}

// NewRotatingLogger creates a logger that writes to stdout and to a size-rotated
// log file. The returned closer releases the file handle.
func NewRotatingLogger(cfg FileConfig) (Logger, func() error, error) {
	if cfg.Path == "" {
		return nil, nil, fmt.Errorf("log file path is required")
	}

	level := convertToZapLevel(ParseLevel(cfg.Level))
	rotator := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    megabytes(cfg.MaxBytes),
		MaxBackups: cfg.MaxBackups,
	}

	encoder := newEncoder(time.RFC3339)
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
		zapcore.NewCore(encoder, zapcore.AddSync(rotator), level),
	)

	return newZapAdapter(core, ""), rotator.Close, nil
}

// megabytes converts a byte budget into lumberjack's megabyte granularity,
// rounding up so a configured limit is never undershot by more than 1MB.
func megabytes(maxBytes int64) int {
	if maxBytes <= 0 {
		return 5
	}
	mb := int((maxBytes + bytesPerMegabyte - 1) / bytesPerMegabyte)
	if mb < 1 {
		mb = 1
	}
	return mb
}

// InitGlobalLogger installs a rotating file logger as the global logger.
// The returned function flushes and closes the log file.
func InitGlobalLogger(cfg FileConfig) (func(), error) {
	logger, closeFile, err := NewRotatingLogger(cfg)
	if err != nil {
		return func() {}, err
	}

	SetGlobalLogger(logger)

	logger.Info("Logger initialized",
		Field{"level", ParseLevel(cfg.Level).String()},
		Field{"log_file", cfg.Path},
		Field{"max_bytes", cfg.MaxBytes},
		Field{"backups", cfg.MaxBackups},
	)

	return func() {
		MustSync()
		_ = closeFile()
	}, nil
}

// MustSync flushes any buffered log entries for zap loggers
func MustSync() {
	logger := GetGlobalLogger()
	if zapLogger, ok := logger.(*ZapAdapter); ok {
		_ = zapLogger.Sync()
	}
}

// WithContext is a convenience function to add context to the global logger
func WithContext(ctx context.Context) Logger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithFields is a convenience function to add fields to the global logger
func WithFields(fields ...Field) Logger {
	return GetGlobalLogger().WithFields(fields...)
}

// Strings creates a string slice field
func Strings(key string, values []string) Field {
	return Field{Key: key, Value: values}
}

// Err creates an error field with key "error"
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}
