package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
)

type OrderRepository struct {
	scope scope
}

func (r *OrderRepository) Insert(ctx context.Context, o *order.Order) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	return r.scope.write(func(st *state) error {
		if _, exists := st.orders[o.ID]; exists {
			return order.ErrConflict
		}
		if _, exists := st.orderNumbers[o.Number]; exists {
			return order.ErrConflict
		}
		st.orders[o.ID] = o.Clone()
		st.orderNumbers[o.Number] = o.ID
		return nil
	})
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	_ = ctx
	var out *order.Order
	err := r.scope.read(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return order.ErrNotFound
		}
		out = o.Clone()
		return nil
	})
	return out, err
}

func (r *OrderRepository) FindBySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	_ = ctx
	if sessionID == "" {
		return nil, order.ErrNotFound
	}
	var out *order.Order
	err := r.scope.read(func(st *state) error {
		for _, o := range st.orders {
			if o.PaymentSessionID == sessionID {
				out = o.Clone()
				return nil
			}
		}
		return order.ErrNotFound
	})
	return out, err
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*order.Order, error) {
	_ = ctx
	var out []*order.Order
	err := r.scope.read(func(st *state) error {
		for _, o := range st.orders {
			if o.BuyerID == buyerID {
				out = append(out, o.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Number > out[j].Number
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r *OrderRepository) Update(ctx context.Context, o *order.Order, from order.Status) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	return r.scope.write(func(st *state) error {
		existing, ok := st.orders[o.ID]
		if !ok {
			return order.ErrNotFound
		}
		if existing.Status != from {
			return order.ErrStale
		}
		// items, totals and the session id are not touched here
		c := existing.Clone()
		c.Status = o.Status
		c.PaymentStatus = o.PaymentStatus
		c.UpdatedAt = o.UpdatedAt
		st.orders[o.ID] = c
		return nil
	})
}

func (r *OrderRepository) SetPaymentSession(ctx context.Context, orderID, sessionID string) error {
	_ = ctx
	if sessionID == "" {
		return fmt.Errorf("order repository: session id is required")
	}
	return r.scope.write(func(st *state) error {
		existing, ok := st.orders[orderID]
		if !ok {
			return order.ErrNotFound
		}
		if existing.PaymentSessionID != "" {
			return order.ErrStale
		}
		c := existing.Clone()
		c.PaymentSessionID = sessionID
		st.orders[orderID] = c
		return nil
	})
}
