package log

import (
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Package-level logger shared by the whole application. Configure is called
// once at startup (and again from the CLI PreRun once flags are parsed);
// everything else just calls the leveled functions with key/value pairs.

var current atomic.Pointer[slog.Logger]

func init() {
	Configure("info", "console")
}

// Configure sets the global log level and output format.
// Level is one of trace, debug, info, warn, error; format is
// "console" or "json". Output always goes to stderr so stdio
// transports keep stdout clean.
func Configure(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	current.Store(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs a debug message with optional key/value pairs.
func Debug(msg string, args ...any) {
	current.Load().Debug(msg, args...)
}

// Info logs an informational message with optional key/value pairs.
func Info(msg string, args ...any) {
	current.Load().Info(msg, args...)
}

// Warn logs a warning message with optional key/value pairs.
func Warn(msg string, args ...any) {
	current.Load().Warn(msg, args...)
}

// Error logs an error message with optional key/value pairs.
func Error(msg string, args ...any) {
	current.Load().Error(msg, args...)
}
