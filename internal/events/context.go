package events

import (
	"context"
)

type contextKey int

const (
	loggerKey contextKey = iota
	runIDKey
)

// FromContext extracts logger from context.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// WithLogger adds logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithRunID tags the context and its logger with the invocation ID.
func WithRunID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).WithField("run_id", id)
	ctx = context.WithValue(ctx, runIDKey, id)
	return WithLogger(ctx, logger)
}

// GetRunID retrieves the run ID from context.
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

var defaultLogger = NewNopLogger()

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
