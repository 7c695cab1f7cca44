package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/inventory"
	"gorm.io/gorm"
)

// Ledger adjusts stock with single conditional statements so that concurrent
// transactions can never drive stock negative.
type Ledger struct {
	db *gorm.DB
}

func (l *Ledger) Reserve(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return inventory.ErrInvalidQuantity
	}
	res := reserveQuery(l.db.WithContext(ctx), productID, qty)
	if res.Error != nil {
		return fmt.Errorf("postgres: reserve stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return l.missOrShort(ctx, productID)
	}
	return nil
}

func (l *Ledger) Release(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return inventory.ErrInvalidQuantity
	}
	res := releaseQuery(l.db.WithContext(ctx), productID, qty)
	if res.Error != nil {
		return fmt.Errorf("postgres: release stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

// reserveQuery only matches the row while enough stock is left.
func reserveQuery(db *gorm.DB, productID string, qty int) *gorm.DB {
	return db.Model(&productRecord{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now().UTC(),
		})
}

func releaseQuery(db *gorm.DB, productID string, qty int) *gorm.DB {
	return db.Model(&productRecord{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_at": time.Now().UTC(),
		})
}

func (l *Ledger) missOrShort(ctx context.Context, productID string) error {
	var n int64
	if err := l.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return fmt.Errorf("postgres: reserve stock: %w", err)
	}
	if n == 0 {
		return inventory.ErrNotFound
	}
	return inventory.ErrInsufficientStock
}
