package product

import (
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("product: not found")
	ErrConflict = errors.New("product: sku already exists")
)

// LowStockThreshold marks the stock level under which a product counts as low on stock.
const LowStockThreshold = 10

type Product struct {
	ID           string
	SellerID     string
	Name         string
	Description  string
	SKU          string
	Category     string
	Brand        string
	Price        decimal.Decimal
	ComparePrice *decimal.Decimal
	Stock        int
	IsActive     bool
	Sizes        []string
	Color        string
	Weight       *decimal.Decimal
	Material     string
	ImageURL     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the invariants a stored product must hold.
func (p *Product) Validate() error {
	f := apperr.Fields{}
	name := strings.TrimSpace(p.Name)
	switch {
	case name == "":
		f.Add("name", "The name field is required.")
	case len(name) > 255:
		f.Add("name", "The name may not be greater than 255 characters.")
	}
	if strings.TrimSpace(p.SKU) == "" {
		f.Add("sku", "The sku field is required.")
	}
	if strings.TrimSpace(p.Category) == "" {
		f.Add("category", "The category field is required.")
	}
	if p.Price.IsNegative() {
		f.Add("price", "The price must be at least 0.")
	}
	if p.ComparePrice != nil && p.ComparePrice.IsNegative() {
		f.Add("compare_price", "The compare price must be at least 0.")
	}
	if p.Weight != nil && p.Weight.IsNegative() {
		f.Add("weight", "The weight must be at least 0.")
	}
	if p.Stock < 0 {
		f.Add("stock", "The stock must be at least 0.")
	}
	return f.Err()
}

// LowStock reports whether the product still has stock but less than LowStockThreshold.
func (p *Product) LowStock() bool {
	return p.Stock > 0 && p.Stock < LowStockThreshold
}

func (p *Product) Touch(now time.Time) {
	p.UpdatedAt = now.UTC()
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	if p.ComparePrice != nil {
		v := *p.ComparePrice
		c.ComparePrice = &v
	}
	if p.Weight != nil {
		v := *p.Weight
		c.Weight = &v
	}
	if p.Sizes != nil {
		c.Sizes = append([]string(nil), p.Sizes...)
	}
	return &c
}
