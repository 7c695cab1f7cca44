package httppresentation

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// ObservabilityMiddleware combines:
// - request-scoped logger injection (dynamic fields only)
// - X-Request-ID generation + echo
// - trace_id/span_id of the server span started by withTrace
func ObservabilityMiddleware(base observability.Logger, requestID func(*http.Request) string) gin.HandlerFunc {
	if base == nil {
		base = observability.NopLogger()
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		rid := ""
		if requestID != nil {
			rid = requestID(c.Request)
		}
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)

		fields := []observability.Field{observability.F("request_id", rid)}
		fields = append(fields, observability.SpanFields(ctx)...)
		c.Request = c.Request.WithContext(logctx.With(ctx, base.With(fields...)))
		c.Next()
	}
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace() gin.HandlerFunc {
	tracer := otel.Tracer("minishop.http")
	return func(c *gin.Context) {
		r := c.Request
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeOf(c)
		spanName := r.Method + " " + route
		if route == unknownRoute {
			spanName = r.Method + " " + r.URL.Path
		}

		ctx, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		c.Request = r.WithContext(ctx)
		c.Next()
		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}

// withHTTPMetrics records RED-ish HTTP metrics using the injected instruments.
// DO NOT create metrics inside the middleware.
func (h *Handler) withHTTPMetrics() gin.HandlerFunc {
	requests := h.metrics.Counter(observability.MHTTPRequests)
	durations := h.metrics.Histogram(observability.MHTTPRequestDuration)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		labels := []observability.Label{
			observability.L("method", c.Request.Method),
			observability.L("route", routeOf(c)),
			observability.L("status", strconv.Itoa(c.Writer.Status())),
		}
		requests.Add(1, labels...)
		durations.Observe(time.Since(start).Seconds(), labels...)
	}
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logctx.FromOr(c.Request.Context(), h.log).Info("http_access",
			observability.F("method", c.Request.Method),
			observability.F("route", routeOf(c)),
			observability.F("path", c.Request.URL.Path),
			observability.F("status", c.Writer.Status()),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	}
}

const unknownRoute = "unknown"

// routeOf is the matched route template, which keeps metric labels low-cardinality.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unknownRoute
}
