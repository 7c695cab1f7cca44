// Package catalog serves the seller product management and the public storefront.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService = "catalog-service"

	useCaseSellerList = "catalog.seller.list"
	useCaseSellerGet  = "catalog.seller.get"
	useCaseCreate     = "catalog.seller.create"
	useCaseUpdate     = "catalog.seller.update"
	useCaseDelete     = "catalog.seller.delete"
	useCaseStats      = "catalog.seller.stats"
	useCasePublicList = "catalog.public.list"
	useCasePublicGet  = "catalog.public.get"
	useCaseCategories = "catalog.public.categories"

	defaultSellerPerPage = 10
	defaultPublicPerPage = 12
)

var (
	sellerSorts = map[string]product.SortField{
		"name":       product.SortName,
		"price":      product.SortPrice,
		"stock":      product.SortStock,
		"created_at": product.SortCreatedAt,
		"updated_at": product.SortUpdatedAt,
	}
	publicSorts = map[string]product.SortField{
		"name":       product.SortName,
		"price":      product.SortPrice,
		"created_at": product.SortCreatedAt,
	}
	sellerSearch = []product.SearchField{product.SearchName, product.SearchSKU, product.SearchCategory}
	publicSearch = []product.SearchField{product.SearchName, product.SearchDescription, product.SearchCategory}
)

type IDGenerator interface {
	NewID() string
}

// ListQuery is a listing request as the client sent it. Unknown sort fields are ignored.
type ListQuery struct {
	Search    string
	Category  string
	IsActive  *bool
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	SortBy    string
	SortOrder string
	Page      int
	// PerPage 0 picks the default page size; All returns every match.
	PerPage int
	All     bool
}

// Listing is a page of products with the store name of each seller on it.
type Listing struct {
	product.Page
	Stores map[string]string
}

type Service struct {
	products product.Repository
	users    user.Repository
	ids      IDGenerator
	now      func() time.Time
	inst     *application.Instrumentation
}

func NewService(products product.Repository, users user.Repository, ids IDGenerator, tel observability.Observability) *Service {
	return &Service{
		products: products,
		users:    users,
		ids:      ids,
		now:      time.Now,
		inst:     application.NewInstrumentation(tel, catalogService),
	}
}

// SellerList lists the seller's own products, active or not.
func (s *Service) SellerList(ctx context.Context, sellerID string, q ListQuery) (_ product.Page, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseSellerList, "SellerListProducts", attribute.String("seller.id", sellerID))
	defer func() { run.End(err) }()

	f := buildFilter(q, sellerSorts, sellerSearch, defaultSellerPerPage)
	f.SellerID = sellerID
	f.IsActive = q.IsActive
	f.MinPrice, f.MaxPrice = nil, nil

	page, err := s.products.List(ctx, f)
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		return product.Page{}, &apperr.PersistenceError{Op: "list products", Err: err}
	}
	run.Field("total", page.Total)
	return page, nil
}

func (s *Service) SellerGet(ctx context.Context, sellerID, id string) (_ *product.Product, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseSellerGet, "SellerGetProduct", attribute.String("product.id", id))
	defer func() { run.End(err) }()
	return s.owned(ctx, run, sellerID, id)
}

func (s *Service) Create(ctx context.Context, sellerID string, in ProductInput) (_ *product.Product, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseCreate, "CreateProduct", attribute.String("seller.id", sellerID))
	defer func() { run.End(err) }()

	if err := in.requireForCreate(); err != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, err
	}
	now := s.now().UTC()
	p := &product.Product{
		ID:        s.ids.NewID(),
		SellerID:  sellerID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(p)
	if err := p.Validate(); err != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, err
	}

	if err := s.products.Insert(ctx, p); err != nil {
		if errors.Is(err, product.ErrConflict) {
			run.Fail("SKU_TAKEN")
			return nil, skuTaken()
		}
		run.Fail("REPO_INSERT_FAILED")
		return nil, &apperr.PersistenceError{Op: "insert product", Err: err}
	}
	run.Field("product_id", p.ID)
	return p, nil
}

func (s *Service) Update(ctx context.Context, sellerID, id string, in ProductInput) (_ *product.Product, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseUpdate, "UpdateProduct", attribute.String("product.id", id))
	defer func() { run.End(err) }()

	p, err := s.owned(ctx, run, sellerID, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := p.Validate(); err != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, err
	}
	p.Touch(s.now())

	if err := s.products.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, product.ErrConflict):
			run.Fail("SKU_TAKEN")
			return nil, skuTaken()
		case errors.Is(err, product.ErrNotFound):
			return nil, &apperr.NotFoundError{Resource: "product", ID: id}
		}
		run.Fail("REPO_UPDATE_FAILED")
		return nil, &apperr.PersistenceError{Op: "update product", Err: err}
	}
	return p, nil
}

// Delete removes the product row. Order items keep their own name and price snapshot.
func (s *Service) Delete(ctx context.Context, sellerID, id string) (err error) {
	ctx, run := s.inst.Begin(ctx, useCaseDelete, "DeleteProduct", attribute.String("product.id", id))
	defer func() { run.End(err) }()

	if _, err := s.owned(ctx, run, sellerID, id); err != nil {
		return err
	}
	err = s.products.Delete(ctx, id)
	switch {
	case errors.Is(err, product.ErrNotFound):
		return &apperr.NotFoundError{Resource: "product", ID: id}
	case err != nil:
		run.Fail("REPO_DELETE_FAILED")
		return &apperr.PersistenceError{Op: "delete product", Err: err}
	}
	return nil
}

func (s *Service) Stats(ctx context.Context, sellerID string) (_ product.Stats, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseStats, "ProductStats", attribute.String("seller.id", sellerID))
	defer func() { run.End(err) }()

	st, err := s.products.Stats(ctx, sellerID)
	if err != nil {
		run.Fail("REPO_STATS_FAILED")
		return product.Stats{}, &apperr.PersistenceError{Op: "product stats", Err: err}
	}
	return st, nil
}

// PublicList lists active products of every seller.
func (s *Service) PublicList(ctx context.Context, q ListQuery) (_ *Listing, err error) {
	ctx, run := s.inst.Begin(ctx, useCasePublicList, "PublicListProducts")
	defer func() { run.End(err) }()

	f := buildFilter(q, publicSorts, publicSearch, defaultPublicPerPage)
	active := true
	f.IsActive = &active

	page, err := s.products.List(ctx, f)
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		return nil, &apperr.PersistenceError{Op: "list products", Err: err}
	}
	run.Field("total", page.Total)
	return &Listing{Page: page, Stores: s.storeNames(ctx, page.Items)}, nil
}

// PublicGet hides inactive products behind NotFoundError.
func (s *Service) PublicGet(ctx context.Context, id string) (_ *product.Product, store string, err error) {
	ctx, run := s.inst.Begin(ctx, useCasePublicGet, "PublicGetProduct", attribute.String("product.id", id))
	defer func() { run.End(err) }()

	p, err := s.products.Get(ctx, id)
	switch {
	case errors.Is(err, product.ErrNotFound):
		return nil, "", &apperr.NotFoundError{Resource: "product", ID: id}
	case err != nil:
		run.Fail("REPO_GET_FAILED")
		return nil, "", &apperr.PersistenceError{Op: "get product", Err: err}
	case !p.IsActive:
		return nil, "", &apperr.NotFoundError{Resource: "product", ID: id}
	}
	return p, s.storeNames(ctx, []*product.Product{p})[p.SellerID], nil
}

func (s *Service) Categories(ctx context.Context) (_ []string, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseCategories, "ProductCategories")
	defer func() { run.End(err) }()

	cats, err := s.products.Categories(ctx)
	if err != nil {
		run.Fail("REPO_CATEGORIES_FAILED")
		return nil, &apperr.PersistenceError{Op: "product categories", Err: err}
	}
	return cats, nil
}

// owned loads a product of sellerID; products of other sellers are reported as missing.
func (s *Service) owned(ctx context.Context, run *application.Execution, sellerID, id string) (*product.Product, error) {
	p, err := s.products.Get(ctx, id)
	switch {
	case errors.Is(err, product.ErrNotFound):
		return nil, &apperr.NotFoundError{Resource: "product", ID: id}
	case err != nil:
		run.Fail("REPO_GET_FAILED")
		return nil, &apperr.PersistenceError{Op: "get product", Err: err}
	case p.SellerID != sellerID:
		return nil, &apperr.NotFoundError{Resource: "product", ID: id}
	}
	return p, nil
}

func (s *Service) storeNames(ctx context.Context, items []*product.Product) map[string]string {
	names := map[string]string{}
	if s.users == nil {
		return names
	}
	for _, p := range items {
		if _, seen := names[p.SellerID]; seen {
			continue
		}
		names[p.SellerID] = ""
		if u, err := s.users.Get(ctx, p.SellerID); err == nil {
			names[p.SellerID] = u.StoreName
		}
	}
	return names
}

func buildFilter(q ListQuery, sorts map[string]product.SortField, search []product.SearchField, perPage int) product.Filter {
	f := product.Filter{
		Search:   strings.TrimSpace(q.Search),
		SearchIn: search,
		Category: strings.TrimSpace(q.Category),
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		SortBy:   product.SortCreatedAt,
		SortDesc: !strings.EqualFold(q.SortOrder, "asc"),
		Page:     q.Page,
		PerPage:  q.PerPage,
	}
	if field, ok := sorts[q.SortBy]; ok {
		f.SortBy = field
	}
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case q.All:
		f.PerPage = 0
	case f.PerPage <= 0:
		f.PerPage = perPage
	}
	return f
}

func skuTaken() error {
	return &apperr.ValidationError{Fields: map[string]string{"sku": "The sku has already been taken."}}
}
