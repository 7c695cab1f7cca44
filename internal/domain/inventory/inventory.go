package inventory

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("inventory: product not found")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// Ledger mutates product stock. Implementations are only handed out inside a unit of work.
type Ledger interface {
	// Reserve decrements stock by qty when at least qty is available.
	// Zero affected rows yields ErrInsufficientStock; a missing product yields ErrNotFound.
	Reserve(ctx context.Context, productID string, qty int) error
	// Release returns qty units to stock unconditionally.
	Release(ctx context.Context, productID string, qty int) error
}

// Deduct applies a reservation to an in-memory stock level.
func Deduct(stock, qty int) (int, error) {
	if qty <= 0 {
		return stock, ErrInvalidQuantity
	}
	if stock < qty {
		return stock, ErrInsufficientStock
	}
	return stock - qty, nil
}

// Restore applies a release to an in-memory stock level.
func Restore(stock, qty int) (int, error) {
	if qty <= 0 {
		return stock, ErrInvalidQuantity
	}
	return stock + qty, nil
}
