package product

import "context"

type Repository interface {
	Insert(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f Filter) (Page, error)
	// Categories returns the distinct categories of active products, sorted.
	Categories(ctx context.Context) ([]string, error)
	Stats(ctx context.Context, sellerID string) (Stats, error)
}
