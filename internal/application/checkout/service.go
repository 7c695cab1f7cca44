// Package checkout places, settles, cancels and lists buyer orders.
package checkout

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	checkoutService = "checkout-service"

	useCaseListOrders = "order.list"
	useCaseGetOrder   = "order.get"
)

// Service groups the checkout use cases behind one instrumentation.
type Service struct {
	PlaceOrder    *PlaceOrderUseCase
	VerifyPayment *VerifyPaymentUseCase
	CancelOrder   *CancelOrderUseCase

	deps Deps
	inst *application.Instrumentation
}

func NewService(deps Deps, tel observability.Observability) *Service {
	deps = deps.withDefaults()
	inst := application.NewInstrumentation(tel, checkoutService)
	return &Service{
		PlaceOrder:    newPlaceOrderUseCase(deps, inst, tel),
		VerifyPayment: newVerifyPaymentUseCase(deps, inst),
		CancelOrder:   &CancelOrderUseCase{deps: deps, inst: inst},
		deps:          deps,
		inst:          inst,
	}
}

// ListOrders returns the buyer's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, buyerID string) (_ []*order.Order, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseListOrders, "ListOrders",
		attribute.String("order.buyer_id", buyerID),
	)
	defer func() { run.End(err) }()

	orders, err := s.deps.Orders.ListByBuyer(ctx, buyerID)
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		return nil, &apperr.PersistenceError{Op: "list orders", Err: err}
	}
	run.Field("count", len(orders))
	return orders, nil
}

// GetOrder hides orders of other buyers behind NotFoundError.
func (s *Service) GetOrder(ctx context.Context, buyerID, orderID string) (_ *order.Order, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseGetOrder, "GetOrder",
		attribute.String("order.buyer_id", buyerID),
		attribute.String("order.id", orderID),
	)
	defer func() { run.End(err) }()

	o, err := s.deps.Orders.Get(ctx, orderID)
	switch {
	case errors.Is(err, order.ErrNotFound):
		return nil, &apperr.NotFoundError{Resource: "order", ID: orderID}
	case err != nil:
		run.Fail("REPO_GET_FAILED")
		return nil, &apperr.PersistenceError{Op: "get order", Err: err}
	case o.BuyerID != buyerID:
		return nil, &apperr.NotFoundError{Resource: "order", ID: orderID}
	}
	return o, nil
}
