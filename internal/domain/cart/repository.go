package cart

import "context"

type Repository interface {
	// List returns the buyer's items in insertion order.
	List(ctx context.Context, buyerID string) ([]*Item, error)
	Get(ctx context.Context, buyerID, itemID string) (*Item, error)
	FindByProduct(ctx context.Context, buyerID, productID string) (*Item, error)
	// Save inserts or replaces the item by ID.
	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, buyerID, itemID string) error
	Clear(ctx context.Context, buyerID string) error
}
