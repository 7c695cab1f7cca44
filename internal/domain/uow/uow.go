// Package uow defines the unit of work that makes order placement atomic.
package uow

import (
	"context"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
)

// Tx exposes the repositories bound to one transaction.
// The inventory ledger is only reachable from here.
type Tx interface {
	Orders() order.Repository
	Products() product.Repository
	Inventory() inventory.Ledger
}

// Transactor runs fn inside a transaction. A non-nil error from fn rolls back every
// write made through the Tx; nil commits them.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
