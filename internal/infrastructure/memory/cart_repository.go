package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/cart"
)

type CartRepository struct {
	mu    sync.RWMutex
	items map[string][]*cart.Item // buyer id -> items in insertion order
}

func NewCartRepository() *CartRepository {
	return &CartRepository{items: make(map[string][]*cart.Item)}
}

func (r *CartRepository) List(ctx context.Context, buyerID string) ([]*cart.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*cart.Item, 0, len(r.items[buyerID]))
	for _, it := range r.items[buyerID] {
		out = append(out, it.Clone())
	}
	return out, nil
}

func (r *CartRepository) Get(ctx context.Context, buyerID, itemID string) (*cart.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, it := range r.items[buyerID] {
		if it.ID == itemID {
			return it.Clone(), nil
		}
	}
	return nil, cart.ErrNotFound
}

func (r *CartRepository) FindByProduct(ctx context.Context, buyerID, productID string) (*cart.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, it := range r.items[buyerID] {
		if it.ProductID == productID {
			return it.Clone(), nil
		}
	}
	return nil, cart.ErrNotFound
}

func (r *CartRepository) Save(ctx context.Context, item *cart.Item) error {
	_ = ctx
	if item == nil || item.ID == "" || item.BuyerID == "" {
		return fmt.Errorf("cart repository: id and buyer id are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.items[item.BuyerID]
	for i, it := range lines {
		if it.ID == item.ID {
			lines[i] = item.Clone()
			return nil
		}
	}
	r.items[item.BuyerID] = append(lines, item.Clone())
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, buyerID, itemID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.items[buyerID]
	for i, it := range lines {
		if it.ID == itemID {
			r.items[buyerID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return cart.ErrNotFound
}

func (r *CartRepository) Clear(ctx context.Context, buyerID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, buyerID)
	return nil
}
