package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

var sortColumns = map[product.SortField]string{
	product.SortName:      "name",
	product.SortPrice:     "price",
	product.SortStock:     "stock",
	product.SortCreatedAt: "created_at",
	product.SortUpdatedAt: "updated_at",
}

var searchColumns = map[product.SearchField]string{
	product.SearchName:        "name",
	product.SearchSKU:         "sku",
	product.SearchDescription: "description",
	product.SearchCategory:    "category",
}

func (r *ProductRepository) Insert(ctx context.Context, p *product.Product) error {
	if err := r.db.WithContext(ctx).Create(toProductRecord(p)).Error; err != nil {
		if isDuplicate(err) {
			return product.ErrConflict
		}
		return fmt.Errorf("postgres: insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*product.Product, error) {
	var rec productRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get product: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	res := r.db.WithContext(ctx).
		Model(&productRecord{ID: p.ID}).
		Select("*").
		Omit("id", "seller_id", "created_at").
		Updates(toProductRecord(p))
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return product.ErrConflict
		}
		return fmt.Errorf("postgres: update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&productRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("postgres: delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) List(ctx context.Context, f product.Filter) (product.Page, error) {
	q := r.filtered(r.db.WithContext(ctx).Model(&productRecord{}), f)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return product.Page{}, fmt.Errorf("postgres: count products: %w", err)
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	q = q.Order(col + " " + dir).Order("id ASC")

	page := product.Page{Total: int(total), Page: f.Page, PerPage: f.PerPage}
	if page.Page < 1 {
		page.Page = 1
	}
	if f.PerPage > 0 {
		q = q.Offset((page.Page - 1) * f.PerPage).Limit(f.PerPage)
	} else {
		page.Page = 1
	}

	var recs []productRecord
	if err := q.Find(&recs).Error; err != nil {
		return product.Page{}, fmt.Errorf("postgres: list products: %w", err)
	}
	page.Items = make([]*product.Product, 0, len(recs))
	for i := range recs {
		page.Items = append(page.Items, recs[i].toDomain())
	}
	return page, nil
}

func (r *ProductRepository) filtered(q *gorm.DB, f product.Filter) *gorm.DB {
	if f.SellerID != "" {
		q = q.Where("seller_id = ?", f.SellerID)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Search != "" && len(f.SearchIn) > 0 {
		pattern := "%" + escapeLike(f.Search) + "%"
		clauses := make([]string, 0, len(f.SearchIn))
		args := make([]any, 0, len(f.SearchIn))
		for _, field := range f.SearchIn {
			if col, ok := searchColumns[field]; ok {
				clauses = append(clauses, col+" ILIKE ?")
				args = append(args, pattern)
			}
		}
		if len(clauses) > 0 {
			q = q.Where("("+strings.Join(clauses, " OR ")+")", args...)
		}
	}
	return q
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := r.db.WithContext(ctx).
		Model(&productRecord{}).
		Where("is_active = ? AND category <> ''", true).
		Distinct("category").
		Order("category").
		Pluck("category", &cats).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: product categories: %w", err)
	}
	return cats, nil
}

func (r *ProductRepository) Stats(ctx context.Context, sellerID string) (product.Stats, error) {
	var row struct {
		Total    int
		Active   int
		Inactive int
		LowStock int
	}
	err := r.db.WithContext(ctx).
		Model(&productRecord{}).
		Select(`COUNT(*) AS total,
			COUNT(*) FILTER (WHERE is_active) AS active,
			COUNT(*) FILTER (WHERE NOT is_active) AS inactive,
			COUNT(*) FILTER (WHERE stock > 0 AND stock < ?) AS low_stock`, product.LowStockThreshold).
		Where("seller_id = ?", sellerID).
		Scan(&row).Error
	if err != nil {
		return product.Stats{}, fmt.Errorf("postgres: product stats: %w", err)
	}
	return product.Stats{
		Total:    row.Total,
		Active:   row.Active,
		Inactive: row.Inactive,
		LowStock: row.LowStock,
	}, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
