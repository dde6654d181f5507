package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("gameweek-oracle/internal/interfaces/httpapi")

// nonRecordingSpan is handed out when a span is skipped so the caller's
// deferred End never touches the real parent span.
var nonRecordingSpan = trace.SpanFromContext(context.Background())

// startSpan opens a child span for handler-level work. Helpers outside the
// handler prefix, and requests on filtered routes such as /healthz that carry
// no parent span, get a no-op span instead of a standalone root.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, nonRecordingSpan
	}
	if !strings.HasPrefix(name, "httpapi.Handler.") {
		return ctx, nonRecordingSpan
	}
	return apiTracer.Start(ctx, name)
}
