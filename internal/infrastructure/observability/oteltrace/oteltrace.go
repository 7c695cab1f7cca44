// Package oteltrace backs observability.Tracer with the global OpenTelemetry provider.
// Without an installed sdktrace.TracerProvider every span is a no-op, which is how the
// service runs unless an exporter is configured by the host.
package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultScope = "minishop-marketplace"

type tracer struct{ t trace.Tracer }

// New returns a tracer scoped to the service name (SERVICE_NAME). Checkout use cases
// open "UC.<Name>" spans on it and the gin middleware opens one span per route.
func New(serviceName string) observability.Tracer {
	if serviceName == "" {
		serviceName = defaultScope
	}
	return &tracer{t: otel.Tracer(serviceName)}
}

func (t *tracer) Start(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, spanName, trace.WithAttributes(attrs...))
}
