// Package debug provides the process-wide structured logger using log/slog.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Format selects the log line encoding.
type Format string

const (
	// FormatText writes key=value lines.
	FormatText Format = "text"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

var (
	logger  *slog.Logger
	enabled bool
	mu      sync.RWMutex
)

func init() {
	logger = newLogger(io.Discard, slog.LevelError+1, FormatText)
}

// Init enables or silences debug logging on stderr.
func Init(enable bool) {
	if enable {
		Configure(os.Stderr, slog.LevelDebug, FormatText)
		return
	}
	Configure(os.Stderr, slog.LevelError+1, FormatText)
}

// Configure replaces the logger. Levels above slog.LevelError discard
// everything.
func Configure(w io.Writer, level slog.Level, format Format) {
	mu.Lock()
	defer mu.Unlock()

	enabled = level <= slog.LevelDebug
	logger = newLogger(w, level, format)
}

func newLogger(w io.Writer, level slog.Level, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Enabled returns whether debug logging is enabled
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// Logger returns the underlying slog.Logger instance
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
