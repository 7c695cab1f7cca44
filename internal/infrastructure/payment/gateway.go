package payment

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
)

const (
	DefaultTimeout = 10 * time.Second

	endpointCreateSession = "checkout_session.create"
	endpointGetSession    = "checkout_session.get"
)

// Registry maps payment methods to hosted checkout gateways.
// Methods without an entry are settled outside the API (cash on delivery).
type Registry struct {
	gateways map[order.PaymentMethod]domain.Gateway
	disabled map[order.PaymentMethod]bool
}

func NewRegistry() *Registry {
	return &Registry{
		gateways: make(map[order.PaymentMethod]domain.Gateway),
		disabled: make(map[order.PaymentMethod]bool),
	}
}

func (r *Registry) Register(method order.PaymentMethod, gw domain.Gateway) {
	if gw == nil {
		delete(r.gateways, method)
		return
	}
	r.gateways[method] = gw
}

// Disable stops accepting method for new orders.
func (r *Registry) Disable(method order.PaymentMethod) {
	r.disabled[method] = true
}

func (r *Registry) Lookup(method order.PaymentMethod) (domain.Gateway, bool) {
	if r == nil {
		return nil, false
	}
	gw, ok := r.gateways[method]
	return gw, ok
}

// Accepts reports whether new orders may use method. Hosted checkout methods
// need a registered gateway.
func (r *Registry) Accepts(method order.PaymentMethod) bool {
	if r == nil || !method.Valid() || r.disabled[method] {
		return false
	}
	if method.RequiresHostedCheckout() {
		_, ok := r.gateways[method]
		return ok
	}
	return true
}

// instrumented bounds every gateway call with a timeout and records external RED metrics.
type instrumented struct {
	next    domain.Gateway
	peer    string
	timeout time.Duration
	log     observability.Logger

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

// Instrument wraps next. A non-positive timeout falls back to DefaultTimeout.
func Instrument(next domain.Gateway, peer string, timeout time.Duration, tel observability.Observability) domain.Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := observability.NopLogger()
	metrics := observability.NopMetrics()
	if tel != nil {
		logger = tel.Logger()
		metrics = tel.Metrics()
	}
	return &instrumented{
		next:         next,
		peer:         peer,
		timeout:      timeout,
		log:          logger.With(observability.F("component", "payment_gateway"), observability.F("peer", peer)),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

func (g *instrumented) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (_ *domain.Session, err error) {
	ctx, done := g.begin(ctx, endpointCreateSession)
	defer func() { done(err) }()
	return g.next.CreateCheckoutSession(ctx, req)
}

func (g *instrumented) GetSessionStatus(ctx context.Context, sessionID string) (_ *domain.SessionStatus, err error) {
	ctx, done := g.begin(ctx, endpointGetSession)
	defer func() { done(err) }()
	return g.next.GetSessionStatus(ctx, sessionID)
}

func (g *instrumented) begin(ctx context.Context, endpoint string) (context.Context, func(error)) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	start := time.Now()

	return ctx, func(err error) {
		outcome := "success"
		switch {
		case err == nil:
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			outcome = "timeout"
		case errors.Is(err, context.Canceled):
			outcome = "canceled"
		default:
			outcome = "error"
		}
		cancel()
		lat := time.Since(start)

		g.extCounter.Add(1,
			observability.L("peer", g.peer),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
		g.extHistogram.Observe(lat.Seconds(),
			observability.L("peer", g.peer),
			observability.L("endpoint", endpoint),
		)

		if err != nil {
			logctx.FromOr(ctx, g.log).Warn("external_call_failed",
				observability.F("peer", g.peer),
				observability.F("endpoint", endpoint),
				observability.F("outcome", outcome),
				observability.F("latency_ms", lat.Milliseconds()),
				observability.F("error", err),
			)
		}
	}
}
