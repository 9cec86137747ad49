package contactbook

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with contactbook-specific context.
// This provides structured logging with consistent field names.
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
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// LogCreate logs a create operation.
func (l *Logger) LogCreate(ctx context.Context, email string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create failed",
			"email", email,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "create completed",
			"email", email,
		)
	}
}

// LogUpdate logs a rename or email change. op names the operation.
func (l *Logger) LogUpdate(ctx context.Context, op, email string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"op", op,
			"email", email,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "update completed",
			"op", op,
			"email", email,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, email string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"email", email,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"email", email,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, query string, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"query", query,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"query", query,
			"results", results,
		)
	}
}

// LogBootstrap logs the startup rebuild of the index.
func (l *Logger) LogBootstrap(ctx context.Context, contacts int, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index bootstrap failed",
			"contacts", contacts,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index bootstrap completed",
			"contacts", contacts,
			"took", took,
		)
	}
}
