package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/payment"
	infraobs "github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowGateway struct {
	delay time.Duration
	err   error
}

func (g *slowGateway) CreateCheckoutSession(ctx context.Context, _ domain.CheckoutRequest) (*domain.Session, error) {
	select {
	case <-time.After(g.delay):
		if g.err != nil {
			return nil, g.err
		}
		return &domain.Session{ID: "cs_1", RedirectURL: "https://pay.example/cs_1"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *slowGateway) GetSessionStatus(ctx context.Context, _ string) (*domain.SessionStatus, error) {
	if _, err := g.CreateCheckoutSession(ctx, domain.CheckoutRequest{}); err != nil {
		return nil, err
	}
	return &domain.SessionStatus{Status: domain.StatusPaid}, nil
}

type recordingCounter struct {
	labels [][]observability.Label
}

func (c *recordingCounter) Add(_ float64, labels ...observability.Label) {
	c.labels = append(c.labels, labels)
}

func (c *recordingCounter) Bind(...observability.Label) observability.BoundCounter { return nil }

func outcomeOf(labels []observability.Label) string {
	for _, l := range labels {
		if l.Key == "outcome" {
			return l.Value
		}
	}
	return ""
}

func TestInstrumentEnforcesTimeout(t *testing.T) {
	counter := &recordingCounter{}
	tel := infraobs.New(nil, nil, map[observability.MetricKey]observability.Counter{
		observability.MExternalRequests: counter,
	}, nil)

	gw := Instrument(&slowGateway{delay: time.Second}, "stripe", 20*time.Millisecond, tel)

	start := time.Now()
	_, err := gw.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	require.Len(t, counter.labels, 1)
	assert.Equal(t, "timeout", outcomeOf(counter.labels[0]))
}

func TestInstrumentRecordsOutcomes(t *testing.T) {
	counter := &recordingCounter{}
	tel := infraobs.New(nil, nil, map[observability.MetricKey]observability.Counter{
		observability.MExternalRequests: counter,
	}, nil)

	ok := Instrument(&slowGateway{}, "stripe", time.Second, tel)
	status, err := ok.GetSessionStatus(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.True(t, status.Paid())

	failing := Instrument(&slowGateway{err: errors.New("card_declined")}, "stripe", time.Second, tel)
	_, err = failing.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{})
	require.Error(t, err)

	require.Len(t, counter.labels, 2)
	assert.Equal(t, "success", outcomeOf(counter.labels[0]))
	assert.Equal(t, "error", outcomeOf(counter.labels[1]))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	gw := &slowGateway{}
	r.Register(order.MethodStripe, gw)

	got, ok := r.Lookup(order.MethodStripe)
	require.True(t, ok)
	assert.Same(t, gw, got)

	_, ok = r.Lookup(order.MethodCOD)
	assert.False(t, ok)

	r.Register(order.MethodStripe, nil)
	_, ok = r.Lookup(order.MethodStripe)
	assert.False(t, ok)

	var nilRegistry *Registry
	_, ok = nilRegistry.Lookup(order.MethodStripe)
	assert.False(t, ok)
}

func TestRegistryAccepts(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Accepts(order.MethodCOD))
	assert.True(t, r.Accepts(order.MethodPayPal))
	assert.False(t, r.Accepts(order.MethodStripe), "hosted checkout needs a gateway")
	assert.False(t, r.Accepts(order.PaymentMethod("bitcoin")))

	r.Register(order.MethodStripe, &slowGateway{})
	assert.True(t, r.Accepts(order.MethodStripe))

	r.Disable(order.MethodPayPal)
	assert.False(t, r.Accepts(order.MethodPayPal))

	var nilRegistry *Registry
	assert.False(t, nilRegistry.Accepts(order.MethodCOD))
}
