package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Logger is a structured logger with automatic trace correlation. Every
// entry carries the subsystem name; entries logged inside an active span
// also carry trace_id and span_id.
type Logger struct {
	logger    *slog.Logger
	subsystem string
}

// NewLogger creates a Logger writing through the given handler.
func NewLogger(handler slog.Handler, subsystem string) *Logger {
	return &Logger{
		logger:    slog.New(handler),
		subsystem: subsystem,
	}
}

// Default returns a Logger over slog's default handler, for callers that
// do not configure logging explicitly.
func Default(subsystem string) *Logger {
	return &Logger{logger: slog.Default(), subsystem: subsystem}
}

// Debug logs at debug level with trace correlation.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Debug(msg, args...)
}

// Info logs at info level with trace correlation.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Info(msg, args...)
}

// Warn logs at warn level with trace correlation.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Warn(msg, args...)
}

// Error logs at error level with trace correlation.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Error(msg, args...)
}

// WithContext returns a slog.Logger carrying the subsystem and, when the
// context holds a valid OpenTelemetry span, the trace and span ids.
func (l *Logger) WithContext(ctx context.Context) *slog.Logger {
	logger := l.logger.With(slog.String("subsystem", l.subsystem))

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		logger = logger.With(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return logger
}

// NewHandler builds a slog.Handler for the given format ("json" or "text")
// and level name. Unknown values fall back to text at info.
func NewHandler(w io.Writer, format, level string) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
