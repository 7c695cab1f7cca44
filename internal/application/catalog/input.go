package catalog

import (
	"strings"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
	"github.com/shopspring/decimal"
)

// ProductInput carries the fields a seller submits. Nil fields are left untouched on
// update; on create the required ones must be present.
type ProductInput struct {
	Name         *string
	Description  *string
	SKU          *string
	Category     *string
	Brand        *string
	Price        *decimal.Decimal
	ComparePrice *decimal.Decimal
	Stock        *int
	IsActive     *bool
	Sizes        *[]string
	Color        *string
	Weight       *decimal.Decimal
	Material     *string
	ImageURL     *string
}

func (in ProductInput) requireForCreate() error {
	f := apperr.Fields{}
	if in.Name == nil {
		f.Add("name", "The name field is required.")
	}
	if in.SKU == nil {
		f.Add("sku", "The sku field is required.")
	}
	if in.Category == nil {
		f.Add("category", "The category field is required.")
	}
	if in.Price == nil {
		f.Add("price", "The price field is required.")
	}
	if in.Stock == nil {
		f.Add("stock", "The stock field is required.")
	}
	return f.Err()
}

func (in ProductInput) apply(p *product.Product) {
	setString(&p.Name, in.Name)
	setString(&p.Description, in.Description)
	setString(&p.SKU, in.SKU)
	setString(&p.Category, in.Category)
	setString(&p.Brand, in.Brand)
	setString(&p.Color, in.Color)
	setString(&p.Material, in.Material)
	setString(&p.ImageURL, in.ImageURL)
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	if in.ComparePrice != nil {
		v := in.ComparePrice.Round(2)
		p.ComparePrice = &v
	}
	if in.Weight != nil {
		v := in.Weight.Round(2)
		p.Weight = &v
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.Sizes != nil {
		p.Sizes = append([]string(nil), (*in.Sizes)...)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
