package product

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type SearchField string

const (
	SearchName        SearchField = "name"
	SearchSKU         SearchField = "sku"
	SearchDescription SearchField = "description"
	SearchCategory    SearchField = "category"
)

type SortField string

const (
	SortName      SortField = "name"
	SortPrice     SortField = "price"
	SortStock     SortField = "stock"
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
)

// Filter narrows a product listing. Zero values mean "no constraint".
type Filter struct {
	SellerID string
	IsActive *bool
	Search   string
	SearchIn []SearchField
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	SortBy   SortField
	SortDesc bool
	// Page is 1-based. PerPage <= 0 returns every match on a single page.
	Page    int
	PerPage int
}

type Page struct {
	Items   []*Product
	Total   int
	Page    int
	PerPage int
}

func (p Page) LastPage() int {
	if p.PerPage <= 0 {
		return 1
	}
	last := (p.Total + p.PerPage - 1) / p.PerPage
	if last < 1 {
		return 1
	}
	return last
}

// Stats summarises one seller's catalog.
type Stats struct {
	Total    int
	Active   int
	Inactive int
	LowStock int
}

// Matches reports whether p satisfies every constraint of f.
func (f Filter) Matches(p *Product) bool {
	if f.SellerID != "" && p.SellerID != f.SellerID {
		return false
	}
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	for _, field := range f.SearchIn {
		var hay string
		switch field {
		case SearchName:
			hay = p.Name
		case SearchSKU:
			hay = p.SKU
		case SearchDescription:
			hay = p.Description
		case SearchCategory:
			hay = p.Category
		}
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// SortProducts orders items according to f; unknown sort fields fall back to creation time.
func SortProducts(items []*Product, f Filter) {
	less := func(a, b *Product) int {
		switch f.SortBy {
		case SortName:
			return strings.Compare(a.Name, b.Name)
		case SortPrice:
			return a.Price.Cmp(b.Price)
		case SortStock:
			return a.Stock - b.Stock
		case SortUpdatedAt:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		c := less(items[i], items[j])
		if f.SortDesc {
			return c > 0
		}
		return c < 0
	})
}

// Paginate slices an already filtered and sorted result into the requested page.
func Paginate(items []*Product, f Filter) Page {
	page := Page{Total: len(items), Page: f.Page, PerPage: f.PerPage}
	if page.Page < 1 {
		page.Page = 1
	}
	if f.PerPage <= 0 {
		page.Page = 1
		page.Items = items
		return page
	}
	start := (page.Page - 1) * f.PerPage
	if start >= len(items) {
		page.Items = []*Product{}
		return page
	}
	end := start + f.PerPage
	if end > len(items) {
		end = len(items)
	}
	page.Items = items[start:end]
	return page
}
