package memory

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/inventory"
)

type ledger struct {
	scope scope
}

func (l *ledger) Reserve(ctx context.Context, productID string, qty int) error {
	return l.adjust(ctx, productID, qty, inventory.Deduct)
}

func (l *ledger) Release(ctx context.Context, productID string, qty int) error {
	return l.adjust(ctx, productID, qty, inventory.Restore)
}

func (l *ledger) adjust(ctx context.Context, productID string, qty int, op func(stock, qty int) (int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.scope.write(func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return inventory.ErrNotFound
		}
		next, err := op(p.Stock, qty)
		if err != nil {
			return err
		}
		c := p.Clone()
		c.Stock = next
		c.Touch(time.Now())
		st.products[productID] = c
		return nil
	})
}
