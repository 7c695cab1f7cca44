package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
)

type ProductRepository struct {
	scope scope
}

func (r *ProductRepository) Insert(ctx context.Context, p *product.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}
	return r.scope.write(func(st *state) error {
		if _, exists := st.products[p.ID]; exists {
			return product.ErrConflict
		}
		if skuTaken(st, p.SKU, "") {
			return product.ErrConflict
		}
		st.products[p.ID] = p.Clone()
		return nil
	})
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*product.Product, error) {
	_ = ctx
	var out *product.Product
	err := r.scope.read(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return product.ErrNotFound
		}
		out = p.Clone()
		return nil
	})
	return out, err
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}
	return r.scope.write(func(st *state) error {
		if _, exists := st.products[p.ID]; !exists {
			return product.ErrNotFound
		}
		if skuTaken(st, p.SKU, p.ID) {
			return product.ErrConflict
		}
		st.products[p.ID] = p.Clone()
		return nil
	})
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	return r.scope.write(func(st *state) error {
		if _, exists := st.products[id]; !exists {
			return product.ErrNotFound
		}
		delete(st.products, id)
		return nil
	})
}

func (r *ProductRepository) List(ctx context.Context, f product.Filter) (product.Page, error) {
	_ = ctx
	var page product.Page
	err := r.scope.read(func(st *state) error {
		matched := make([]*product.Product, 0, len(st.products))
		for _, p := range st.products {
			if f.Matches(p) {
				matched = append(matched, p.Clone())
			}
		}
		// map iteration is random; fix a base order before the stable sort
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
		product.SortProducts(matched, f)
		page = product.Paginate(matched, f)
		return nil
	})
	return page, err
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	_ = ctx
	var out []string
	err := r.scope.read(func(st *state) error {
		seen := make(map[string]struct{})
		for _, p := range st.products {
			if !p.IsActive || p.Category == "" {
				continue
			}
			if _, ok := seen[p.Category]; ok {
				continue
			}
			seen[p.Category] = struct{}{}
			out = append(out, p.Category)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

func (r *ProductRepository) Stats(ctx context.Context, sellerID string) (product.Stats, error) {
	_ = ctx
	var stats product.Stats
	err := r.scope.read(func(st *state) error {
		for _, p := range st.products {
			if p.SellerID != sellerID {
				continue
			}
			stats.Total++
			if p.IsActive {
				stats.Active++
			} else {
				stats.Inactive++
			}
			if p.LowStock() {
				stats.LowStock++
			}
		}
		return nil
	})
	return stats, err
}

func skuTaken(st *state, sku, exceptID string) bool {
	for id, p := range st.products {
		if id != exceptID && p.SKU == sku {
			return true
		}
	}
	return false
}
