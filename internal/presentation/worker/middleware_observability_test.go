package workerpresentation

import (
	"context"
	"testing"

	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type fieldLogger struct {
	fields map[string]any
}

func (l *fieldLogger) With(fields ...observability.Field) observability.Logger {
	next := &fieldLogger{fields: map[string]any{}}
	for k, v := range l.fields {
		next.fields[k] = v
	}
	for _, f := range fields {
		next.fields[f.Key] = f.Value
	}
	return next
}

func (*fieldLogger) Debug(string, ...observability.Field) {}
func (*fieldLogger) Info(string, ...observability.Field)  {}
func (*fieldLogger) Warn(string, ...observability.Field)  {}
func (*fieldLogger) Error(string, ...observability.Field) {}

type namedEvent string

func (e namedEvent) EventName() string { return string(e) }

type recordingSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (s *recordingSubscriber) Subscribe(name string, h domoutbox.Handler) {
	s.handlers[name] = h
}

func TestWithEventContext(t *testing.T) {
	base := &fieldLogger{}
	traceID := trace.TraceID{1}
	spanID := trace.SpanID{2}

	ctx := WithEventContext(context.Background(), base, nil, traceID, spanID, map[string]string{
		"event_id": "evt-1",
		"event":    "order.placed",
		"empty":    "",
	})

	got := logctx.From(ctx).(*fieldLogger).fields
	assert.Equal(t, "evt-1", got["event_id"])
	assert.Equal(t, traceID.String(), got["trace_id"])
	assert.Equal(t, spanID.String(), got["span_id"])
	assert.Equal(t, "order.placed", got["event"])
	assert.NotContains(t, got, "empty")

	ctx = WithEventContext(context.Background(), base, nil, trace.TraceID{}, trace.SpanID{}, nil)
	got = logctx.From(ctx).(*fieldLogger).fields
	assert.NotEmpty(t, got["event_id"])
	assert.NotContains(t, got, "trace_id")
	assert.NotContains(t, got, "span_id")
}

func TestSubscriberScopesLoggerPerEvent(t *testing.T) {
	next := &recordingSubscriber{handlers: map[string]domoutbox.Handler{}}
	sub := NewSubscriber(next, nil)

	var seen []observability.Logger
	sub.Subscribe("order.placed", func(ctx context.Context, _ domoutbox.Event) error {
		seen = append(seen, logctx.From(ctx))
		return nil
	})

	h, ok := next.handlers["order.placed"]
	require.True(t, ok)
	require.NoError(t, h(context.Background(), namedEvent("order.placed")))
	require.NoError(t, h(context.Background(), namedEvent("order.placed")))

	require.Len(t, seen, 2)
	assert.NotNil(t, seen[0])
	assert.NotNil(t, seen[1])
}
