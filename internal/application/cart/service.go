// Package cart manages the buyer's server-side cart.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService = "cart-service"

	useCaseView   = "cart.view"
	useCaseCount  = "cart.count"
	useCaseAdd    = "cart.add"
	useCaseUpdate = "cart.update"
	useCaseRemove = "cart.remove"
	useCaseClear  = "cart.clear"

	unknownSeller = "Unknown Seller"
)

type IDGenerator interface {
	NewID() string
}

// Line is a cart item joined with its live product.
type Line struct {
	Item       *domain.Item
	Product    *product.Product
	SellerName string
	Subtotal   decimal.Decimal
}

type View struct {
	Lines []Line
	Total decimal.Decimal
	Count int
}

type AddCommand struct {
	BuyerID   string
	ProductID string
	Quantity  int
}

type UpdateCommand struct {
	BuyerID  string
	ItemID   string
	Quantity int
}

type Service struct {
	carts    domain.Repository
	products product.Repository
	users    user.Repository
	ids      IDGenerator
	now      func() time.Time
	inst     *application.Instrumentation
}

// NewService wires the cart use cases. users may be nil, in which case seller names are not resolved.
func NewService(carts domain.Repository, products product.Repository, users user.Repository, ids IDGenerator, tel observability.Observability) *Service {
	return &Service{
		carts:    carts,
		products: products,
		users:    users,
		ids:      ids,
		now:      time.Now,
		inst:     application.NewInstrumentation(tel, cartService),
	}
}

// View lists the cart. Items whose product no longer exists are left out.
func (s *Service) View(ctx context.Context, buyerID string) (_ *View, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseView, "ViewCart", attribute.String("cart.buyer_id", buyerID))
	defer func() { run.End(err) }()

	items, err := s.carts.List(ctx, buyerID)
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		return nil, &apperr.PersistenceError{Op: "list cart", Err: err}
	}

	sellers := map[string]string{}
	view := &View{Lines: make([]Line, 0, len(items)), Total: decimal.Zero}
	for _, it := range items {
		p, perr := s.products.Get(ctx, it.ProductID)
		switch {
		case errors.Is(perr, product.ErrNotFound):
			continue
		case perr != nil:
			run.Fail("PRODUCT_LOAD_FAILED")
			return nil, &apperr.PersistenceError{Op: "load product", Err: perr}
		}
		l := s.line(ctx, it, p, sellers)
		view.Lines = append(view.Lines, l)
		view.Total = view.Total.Add(l.Subtotal)
		view.Count += it.Quantity
	}
	run.Field("lines", len(view.Lines))
	return view, nil
}

// Count sums the quantities in the cart.
func (s *Service) Count(ctx context.Context, buyerID string) (_ int, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseCount, "CountCart", attribute.String("cart.buyer_id", buyerID))
	defer func() { run.End(err) }()

	items, err := s.carts.List(ctx, buyerID)
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		return 0, &apperr.PersistenceError{Op: "list cart", Err: err}
	}
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n, nil
}

// Add puts a product in the cart or increments the existing line.
// created reports whether a new line was inserted.
func (s *Service) Add(ctx context.Context, cmd AddCommand) (_ *Line, created bool, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseAdd, "AddToCart",
		attribute.String("cart.buyer_id", cmd.BuyerID),
		attribute.String("cart.product_id", cmd.ProductID),
	)
	defer func() { run.End(err) }()

	if cmd.Quantity == 0 {
		cmd.Quantity = 1
	}
	if cmd.Quantity < 1 {
		run.Fail("QUANTITY_INVALID")
		return nil, false, apperr.Validation("quantity", "The quantity must be at least 1.")
	}
	p, err := s.products.Get(ctx, cmd.ProductID)
	switch {
	case errors.Is(err, product.ErrNotFound):
		run.Fail("PRODUCT_NOT_FOUND")
		return nil, false, apperr.Validation("product_id", "The selected product id is invalid.")
	case err != nil:
		run.Fail("PRODUCT_LOAD_FAILED")
		return nil, false, &apperr.PersistenceError{Op: "load product", Err: err}
	}

	existing, err := s.carts.FindByProduct(ctx, cmd.BuyerID, cmd.ProductID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		existing = nil
	case err != nil:
		run.Fail("REPO_FIND_FAILED")
		return nil, false, &apperr.PersistenceError{Op: "find cart item", Err: err}
	}

	now := s.now().UTC()
	item := existing
	if item == nil {
		item = &domain.Item{
			ID:        s.ids.NewID(),
			BuyerID:   cmd.BuyerID,
			ProductID: cmd.ProductID,
			CreatedAt: now,
		}
	}
	want := item.Quantity + cmd.Quantity
	if p.Stock < want {
		return nil, false, insufficient(p, want)
	}
	item.Quantity = want
	item.UpdatedAt = now

	if err := s.carts.Save(ctx, item); err != nil {
		run.Fail("REPO_SAVE_FAILED")
		return nil, false, &apperr.PersistenceError{Op: "save cart item", Err: err}
	}
	l := s.line(ctx, item, p, map[string]string{})
	return &l, existing == nil, nil
}

// Update replaces the quantity of one line.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (_ *Line, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseUpdate, "UpdateCartItem",
		attribute.String("cart.buyer_id", cmd.BuyerID),
		attribute.String("cart.item_id", cmd.ItemID),
	)
	defer func() { run.End(err) }()

	if cmd.Quantity < 1 {
		run.Fail("QUANTITY_INVALID")
		return nil, apperr.Validation("quantity", "The quantity must be at least 1.")
	}
	item, err := s.carts.Get(ctx, cmd.BuyerID, cmd.ItemID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, &apperr.NotFoundError{Resource: "cart item", ID: cmd.ItemID}
	case err != nil:
		run.Fail("REPO_GET_FAILED")
		return nil, &apperr.PersistenceError{Op: "get cart item", Err: err}
	}
	p, err := s.products.Get(ctx, item.ProductID)
	switch {
	case errors.Is(err, product.ErrNotFound):
		return nil, &apperr.NotFoundError{Resource: "product", ID: item.ProductID}
	case err != nil:
		run.Fail("PRODUCT_LOAD_FAILED")
		return nil, &apperr.PersistenceError{Op: "load product", Err: err}
	}
	if p.Stock < cmd.Quantity {
		return nil, insufficient(p, cmd.Quantity)
	}

	item.Quantity = cmd.Quantity
	item.UpdatedAt = s.now().UTC()
	if err := s.carts.Save(ctx, item); err != nil {
		run.Fail("REPO_SAVE_FAILED")
		return nil, &apperr.PersistenceError{Op: "save cart item", Err: err}
	}
	l := s.line(ctx, item, p, map[string]string{})
	return &l, nil
}

func (s *Service) Remove(ctx context.Context, buyerID, itemID string) (err error) {
	ctx, run := s.inst.Begin(ctx, useCaseRemove, "RemoveCartItem",
		attribute.String("cart.buyer_id", buyerID),
		attribute.String("cart.item_id", itemID),
	)
	defer func() { run.End(err) }()

	err = s.carts.Delete(ctx, buyerID, itemID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &apperr.NotFoundError{Resource: "cart item", ID: itemID}
	case err != nil:
		run.Fail("REPO_DELETE_FAILED")
		return &apperr.PersistenceError{Op: "delete cart item", Err: err}
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, buyerID string) (err error) {
	ctx, run := s.inst.Begin(ctx, useCaseClear, "ClearCart", attribute.String("cart.buyer_id", buyerID))
	defer func() { run.End(err) }()

	if err := s.carts.Clear(ctx, buyerID); err != nil {
		run.Fail("REPO_CLEAR_FAILED")
		return &apperr.PersistenceError{Op: "clear cart", Err: err}
	}
	return nil
}

func (s *Service) line(ctx context.Context, it *domain.Item, p *product.Product, sellers map[string]string) Line {
	return Line{
		Item:       it,
		Product:    p,
		SellerName: s.sellerName(ctx, p.SellerID, sellers),
		Subtotal:   p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
	}
}

// sellerName resolves the store name once per seller and view.
func (s *Service) sellerName(ctx context.Context, sellerID string, cache map[string]string) string {
	if name, ok := cache[sellerID]; ok {
		return name
	}
	name := unknownSeller
	if s.users != nil {
		if u, err := s.users.Get(ctx, sellerID); err == nil && u.StoreName != "" {
			name = u.StoreName
		}
	}
	cache[sellerID] = name
	return name
}

func insufficient(p *product.Product, requested int) error {
	return &apperr.InsufficientStockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Available:   p.Stock,
		Requested:   requested,
	}
}
