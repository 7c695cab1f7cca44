package postgres

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/cart"
	"gorm.io/gorm"
)

type CartRepository struct {
	db *gorm.DB
}

func (r *CartRepository) List(ctx context.Context, buyerID string) ([]*cart.Item, error) {
	var recs []cartItemRecord
	if err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Order("created_at ASC, id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("postgres: list cart: %w", err)
	}
	out := make([]*cart.Item, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out, nil
}

func (r *CartRepository) Get(ctx context.Context, buyerID, itemID string) (*cart.Item, error) {
	return r.first(ctx, "buyer_id = ? AND id = ?", buyerID, itemID)
}

func (r *CartRepository) FindByProduct(ctx context.Context, buyerID, productID string) (*cart.Item, error) {
	return r.first(ctx, "buyer_id = ? AND product_id = ?", buyerID, productID)
}

func (r *CartRepository) first(ctx context.Context, where string, args ...any) (*cart.Item, error) {
	var rec cartItemRecord
	if err := r.db.WithContext(ctx).Where(where, args...).First(&rec).Error; err != nil {
		if isNotFound(err) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get cart item: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *CartRepository) Save(ctx context.Context, item *cart.Item) error {
	if err := r.db.WithContext(ctx).Save(toCartRecord(item)).Error; err != nil {
		return fmt.Errorf("postgres: save cart item: %w", err)
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, buyerID, itemID string) error {
	res := r.db.WithContext(ctx).Where("buyer_id = ? AND id = ?", buyerID, itemID).Delete(&cartItemRecord{})
	if res.Error != nil {
		return fmt.Errorf("postgres: delete cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return cart.ErrNotFound
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, buyerID string) error {
	if err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Delete(&cartItemRecord{}).Error; err != nil {
		return fmt.Errorf("postgres: clear cart: %w", err)
	}
	return nil
}
