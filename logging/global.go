// Package logging provides the application's structured logging: a global
// slog-backed service plus an HTTP request logging middleware.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

type LoggingService struct {
	Logger *slog.Logger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger writing to stderr and, when
// logFile is non-empty, to that file as well. The returned cleanup closes the
// file; callers must defer it.
func InitLogger(level, logFile string) (func(), error) {
	writers := []io.Writer{os.Stderr}
	cleanup := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
		cleanup = func() { _ = f.Close() }
	}

	handler := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	DefaultLoggingService = &LoggingService{Logger: slog.New(handler)}
	slog.SetDefault(DefaultLoggingService.Logger)
	return cleanup, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger(slog.LevelDebug).Debug(msg, args...)
}

// logger returns the configured logger, or a stderr fallback at the given
// level when logging has not been initialized yet.
func logger(level slog.Level) *slog.Logger {
	if DefaultLoggingService != nil && DefaultLoggingService.Logger != nil {
		return DefaultLoggingService.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
