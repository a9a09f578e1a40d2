package latmeas

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with measurement-run context. It provides
// structured logging with consistent field names across the driver, the
// persistence adapter, and the CLI.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithEnsemble adds the ensemble name to the logger.
func (l *Logger) WithEnsemble(name string) *Logger {
	return &Logger{Logger: l.Logger.With("ensemble", name)}
}

// WithRunID adds the run identity to the logger.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{Logger: l.Logger.With("run_id", id)}
}

// LogFlush logs a measurement flush.
func (l *Logger) LogFlush(path string, groups int, err error) {
	if err != nil {
		l.Error("flush failed", "path", path, "groups", groups, "error", err)
	} else {
		l.Info("measurements flushed", "path", path, "groups", groups)
	}
}
