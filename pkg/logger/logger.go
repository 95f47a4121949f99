// Package logger decorates slog handlers with request correlation attributes.
package logger

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

// CorrelationHandler wraps an slog.Handler and stamps every record with the
// trace id and request id carried in the context, when present.
type CorrelationHandler struct {
	inner slog.Handler
}

// WithCorrelation wraps the given handler.
func WithCorrelation(handler slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: handler}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(correlationAttrs(ctx)...)
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(group string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(group)}
}

// correlationAttrs extracts the identifiers a record should carry. The otel
// span context is consulted first so logs line up with traces when a tracer
// provider is installed; the chi request id covers plain HTTP correlation.
func correlationAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs, slog.String("trace_id", sc.TraceID().String()))
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		attrs = append(attrs, slog.String("request_id", reqID))
	}
	return attrs
}
