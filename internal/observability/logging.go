package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/errdetective/internal/logfields"
)

// LogContext holds the structured logging fields carried by a context.
type LogContext struct {
	BatchID   string
	Source    string
	RequestID string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithBatchID tags the context with the id of the batch being analyzed.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	lc := extractLogContext(ctx)
	lc.BatchID = batchID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithSource tags the context with where inputs came from (cli, nats, ...).
func WithSource(ctx context.Context, source string) context.Context {
	lc := extractLogContext(ctx)
	lc.Source = source
	return context.WithValue(ctx, logContextKey, lc)
}

// WithRequestID tags the context with a transport-level request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RequestID = requestID
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

// Attrs returns the context's log fields as slog attributes.
func Attrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}
	if lc.BatchID != "" {
		attrs = append(attrs, logfields.BatchID(lc.BatchID))
	}
	if lc.Source != "" {
		attrs = append(attrs, logfields.Source(lc.Source))
	}
	if lc.RequestID != "" {
		attrs = append(attrs, logfields.RequestID(lc.RequestID))
	}
	return attrs
}

// Log writes msg to logger (slog.Default when nil) with the context fields
// prepended to attrs.
func Log(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger.LogAttrs(ctx, level, msg, append(Attrs(ctx), attrs...)...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, nil, slog.LevelInfo, msg, attrs...)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, nil, slog.LevelWarn, msg, attrs...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, nil, slog.LevelError, msg, attrs...)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, nil, slog.LevelDebug, msg, attrs...)
}
