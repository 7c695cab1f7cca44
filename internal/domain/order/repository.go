package order

import "context"

type Repository interface {
	// Insert stores the order and its items; a duplicate number yields ErrConflict.
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*Order, error)
	// ListByBuyer returns the buyer's orders, newest first.
	ListByBuyer(ctx context.Context, buyerID string) ([]*Order, error)
	// Update persists status and payment status, provided the stored status is still from.
	// Otherwise it returns ErrStale and writes nothing.
	Update(ctx context.Context, order *Order, from Status) error
	// SetPaymentSession records the gateway session id on an order that has none yet.
	// Only that column is written; an order that already carries one yields ErrStale.
	SetPaymentSession(ctx context.Context, orderID, sessionID string) error
}
