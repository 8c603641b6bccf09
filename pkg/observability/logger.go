package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"
)

// NewHandler builds the process log handler for cfg, writing to w and
// wrapped in a [TracingHandler].
func NewHandler(w io.Writer, cfg Config) slog.Handler {
	var inner slog.Handler

	switch cfg.LogFormat {
	case FormatJSON:
		inner = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel})
	case FormatPretty:
		inner = log.NewWithOptions(w, log.Options{
			Level:           log.Level(cfg.LogLevel),
			ReportTimestamp: true,
			Prefix:          cfg.ServiceName,
		})
	default:
		inner = slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel})
	}

	return NewTracingHandler(inner, cfg.ServiceName, cfg.Environment, cfg.Mode)
}

// ParseLogFormat maps a configuration value to a LogFormat, defaulting to text.
func ParseLogFormat(name string) (LogFormat, error) {
	switch LogFormat(name) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatPretty:
		return LogFormat(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLogFormat, name)
	}
}

// ErrUnknownLogFormat reports an unsupported log format name.
var ErrUnknownLogFormat = errors.New("unknown log format")

// TracingHandler is an [slog.Handler] that injects OpenTelemetry trace context
// (trace_id, span_id) and service metadata into every log record.
// Service attributes (service, env, mode) are pre-attached at construction
// so they remain at the top level even when groups are used.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps an [slog.Handler], injecting trace context and service metadata.
// Service attributes are pre-attached to the inner handler so they appear at the
// top level regardless of subsequent WithGroup calls.
func NewTracingHandler(inner slog.Handler, service, env string, appMode AppMode) *TracingHandler {
	attrs := []slog.Attr{
		slog.String(attrService, service),
		slog.String(attrMode, string(appMode)),
	}

	if env != "" {
		attrs = append(attrs, slog.String(attrEnv, env))
	}

	return &TracingHandler{
		inner: inner.WithAttrs(attrs),
	}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds trace context attributes from the span context, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	err := th.inner.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs returns a new TracingHandler with additional attributes on the inner handler.
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{
		inner: th.inner.WithAttrs(attrs),
	}
}

// WithGroup returns a new TracingHandler with a group prefix on the inner handler.
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{
		inner: th.inner.WithGroup(name),
	}
}
