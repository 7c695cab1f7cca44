package postgres

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

func (r *OrderRepository) Insert(ctx context.Context, o *order.Order) error {
	if err := r.db.WithContext(ctx).Create(toOrderRecord(o)).Error; err != nil {
		if isDuplicate(err) {
			return order.ErrConflict
		}
		return fmt.Errorf("postgres: insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *OrderRepository) FindBySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	if sessionID == "" {
		return nil, order.ErrNotFound
	}
	return r.first(ctx, "payment_session_id = ?", sessionID)
}

func (r *OrderRepository) first(ctx context.Context, where string, arg any) (*order.Order, error) {
	var rec orderRecord
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where(where, arg).
		First(&rec).Error
	if err != nil {
		if isNotFound(err) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get order: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*order.Order, error) {
	var recs []orderRecord
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	out := make([]*order.Order, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out, nil
}

// Update is a compare-and-set on status: concurrent transitions of the same order
// cannot both commit, whatever the isolation level.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order, from order.Status) error {
	res := transitionQuery(r.db.WithContext(ctx), o, from)
	if res.Error != nil {
		return fmt.Errorf("postgres: update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrStale(ctx, o.ID)
	}
	return nil
}

func (r *OrderRepository) SetPaymentSession(ctx context.Context, orderID, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("postgres: set payment session: session id is required")
	}
	res := sessionQuery(r.db.WithContext(ctx), orderID, sessionID)
	if res.Error != nil {
		return fmt.Errorf("postgres: set payment session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrStale(ctx, orderID)
	}
	return nil
}

func transitionQuery(db *gorm.DB, o *order.Order, from order.Status) *gorm.DB {
	return db.Model(&orderRecord{}).
		Where("id = ? AND status = ?", o.ID, string(from)).
		Updates(map[string]any{
			"status":         string(o.Status),
			"payment_status": string(o.PaymentStatus),
			"updated_at":     o.UpdatedAt,
		})
}

func sessionQuery(db *gorm.DB, orderID, sessionID string) *gorm.DB {
	return db.Model(&orderRecord{}).
		Where("id = ? AND COALESCE(payment_session_id, '') = ''", orderID).
		Update("payment_session_id", sessionID)
}

func (r *OrderRepository) missOrStale(ctx context.Context, id string) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&orderRecord{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("postgres: update order: %w", err)
	}
	if n == 0 {
		return order.ErrNotFound
	}
	return order.ErrStale
}
