package checkout

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseCancelOrder = "order.cancel"

type CancelOrderCommand struct {
	BuyerID string
	OrderID string
}

// CancelOrderUseCase is the inverse of placement: stock comes back and the order is cancelled
// in the same unit of work.
type CancelOrderUseCase struct {
	deps Deps
	inst *application.Instrumentation
}

func NewCancelOrderUseCase(deps Deps, tel observability.Observability) *CancelOrderUseCase {
	return &CancelOrderUseCase{deps: deps.withDefaults(), inst: application.NewInstrumentation(tel, checkoutService)}
}

func (uc *CancelOrderUseCase) Execute(ctx context.Context, cmd CancelOrderCommand) (_ *order.Order, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseCancelOrder, "CancelOrder",
		attribute.String("order.buyer_id", cmd.BuyerID),
		attribute.String("order.id", cmd.OrderID),
	)
	defer func() { run.End(err) }()
	logger := run.Logger()

	var cancelled *order.Order
	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context, tx uow.Tx) error {
		o, err := tx.Orders().Get(ctx, cmd.OrderID)
		switch {
		case errors.Is(err, order.ErrNotFound):
			return &apperr.NotFoundError{Resource: "order", ID: cmd.OrderID}
		case err != nil:
			return &apperr.PersistenceError{Op: "load order", Err: err}
		case o.BuyerID != cmd.BuyerID:
			return &apperr.NotFoundError{Resource: "order", ID: cmd.OrderID}
		}
		if o.Status != order.StatusPending {
			return &apperr.InvalidStateError{Resource: "order", From: string(o.Status), Action: "cancel"}
		}

		for _, it := range o.Items {
			err := tx.Inventory().Release(ctx, it.ProductID, it.Quantity)
			switch {
			case errors.Is(err, inventory.ErrNotFound):
				// the product was deleted; the item snapshot is all that is left
				logger.Warn("stock_release_skipped",
					observability.F("order_id", o.ID),
					observability.F("product_id", it.ProductID),
				)
			case err != nil:
				return &apperr.PersistenceError{Op: "release stock", Err: err}
			}
		}
		if err := o.Cancel(); err != nil {
			return &apperr.InvalidStateError{Resource: "order", From: string(o.Status), Action: "cancel"}
		}
		err = tx.Orders().Update(ctx, o, order.StatusPending)
		switch {
		case errors.Is(err, order.ErrStale):
			// another transition committed first; the releases above roll back with us
			return &apperr.InvalidStateError{Resource: "order", From: currentStatus(ctx, tx, o.ID), Action: "cancel"}
		case err != nil:
			return &apperr.PersistenceError{Op: "update order", Err: err}
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	run.Field("order_id", cancelled.ID)
	return cancelled, nil
}

// currentStatus re-reads the order after a lost compare-and-set.
func currentStatus(ctx context.Context, tx uow.Tx, id string) string {
	o, err := tx.Orders().Get(ctx, id)
	if err != nil {
		return "unknown"
	}
	return string(o.Status)
}
