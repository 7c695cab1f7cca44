package product

import (
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProduct() *Product {
	return &Product{
		ID:       "p1",
		SellerID: "s1",
		Name:     "Linen Shirt",
		SKU:      "LS-001",
		Category: "Apparel",
		Price:    decimal.RequireFromString("499.00"),
		Stock:    5,
		IsActive: true,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validProduct().Validate())

	p := validProduct()
	p.Name = " "
	p.SKU = ""
	p.Stock = -1
	p.Price = decimal.NewFromInt(-1)

	var verr *apperr.ValidationError
	require.ErrorAs(t, p.Validate(), &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "sku")
	assert.Contains(t, verr.Fields, "stock")
	assert.Contains(t, verr.Fields, "price")
	assert.NotContains(t, verr.Fields, "category")
}

func TestLowStock(t *testing.T) {
	p := validProduct()
	for stock, want := range map[int]bool{0: false, 1: true, 9: true, 10: false} {
		p.Stock = stock
		assert.Equal(t, want, p.LowStock(), "stock=%d", stock)
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := validProduct()
	cp := decimal.NewFromInt(600)
	p.ComparePrice = &cp
	p.Sizes = []string{"S", "M"}

	c := p.Clone()
	c.Sizes[0] = "XL"
	*c.ComparePrice = decimal.NewFromInt(1)

	assert.Equal(t, "S", p.Sizes[0])
	assert.True(t, p.ComparePrice.Equal(decimal.NewFromInt(600)))
}

func TestFilterMatchesAndSorts(t *testing.T) {
	now := time.Now()
	a := validProduct()
	a.ID, a.Name, a.Price, a.CreatedAt = "a", "Alpha Boots", decimal.NewFromInt(300), now
	b := validProduct()
	b.ID, b.Name, b.Price, b.CreatedAt, b.Category = "b", "Beta Tee", decimal.NewFromInt(100), now.Add(time.Second), "Tops"
	c := validProduct()
	c.ID, c.Name, c.IsActive, c.CreatedAt = "c", "Gamma Hat", false, now.Add(2*time.Second)

	active := true
	minPrice := decimal.NewFromInt(150)
	f := Filter{IsActive: &active, MinPrice: &minPrice}
	assert.True(t, f.Matches(a))
	assert.False(t, f.Matches(b))
	assert.False(t, f.Matches(c))

	search := Filter{Search: "TEE", SearchIn: []SearchField{SearchName}}
	assert.True(t, search.Matches(b))
	assert.False(t, search.Matches(a))

	items := []*Product{a, b, c}
	SortProducts(items, Filter{SortBy: SortPrice})
	assert.Equal(t, "b", items[0].ID)

	SortProducts(items, Filter{SortDesc: true})
	assert.Equal(t, []string{"c", "b", "a"}, []string{items[0].ID, items[1].ID, items[2].ID})
}

func TestPaginate(t *testing.T) {
	items := make([]*Product, 25)
	for i := range items {
		items[i] = validProduct()
	}

	page := Paginate(items, Filter{Page: 3, PerPage: 10})
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.LastPage())

	beyond := Paginate(items, Filter{Page: 9, PerPage: 10})
	assert.Empty(t, beyond.Items)

	all := Paginate(items, Filter{})
	assert.Len(t, all.Items, 25)
	assert.Equal(t, 1, all.LastPage())
}
