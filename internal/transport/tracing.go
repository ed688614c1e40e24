// internal/transport/tracing.go
// Direct OpenTelemetry span instrumentation for forwarder fan-out and CLIENT
// group_send calls: spans are opened and closed directly around each RPC
// call using go.opentelemetry.io/otel.
package transport

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/groupcast/groupcast/internal/transport")

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}
