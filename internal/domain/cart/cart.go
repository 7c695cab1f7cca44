package cart

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("cart: item not found")

// Item is one line of a buyer's cart. A buyer holds at most one item per product.
type Item struct {
	ID        string
	BuyerID   string
	ProductID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
