package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	useCasePlaceOrder = "order.place"

	maxNumberAttempts = 3

	publishPeer     = "outbox"
	publishEndpoint = "order.placed"
	publishTimeout  = 300 * time.Millisecond
)

var validate = validator.New()

type PlaceOrderCommand struct {
	BuyerID       string
	Shipping      order.Shipping
	PaymentMethod string
	Notes         string
}

type PlaceOrderResult struct {
	Order *order.Order
	// RedirectURL is the hosted checkout page; empty for deferred payment methods.
	RedirectURL     string
	RequiresPayment bool
}

// PlaceOrderUseCase turns the buyer's cart into an order, reserving stock and opening
// the hosted checkout session inside one unit of work.
type PlaceOrderUseCase struct {
	deps Deps
	inst *application.Instrumentation

	ordersPlaced   observability.Counter   // orders_placed_total{payment_method}
	stockConflicts observability.Counter   // stock_conflicts_total{stage}
	extCounter     observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram   observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewPlaceOrderUseCase(deps Deps, tel observability.Observability) *PlaceOrderUseCase {
	return newPlaceOrderUseCase(deps.withDefaults(), application.NewInstrumentation(tel, checkoutService), tel)
}

func newPlaceOrderUseCase(deps Deps, inst *application.Instrumentation, tel observability.Observability) *PlaceOrderUseCase {
	metrics := observability.NopMetrics()
	if tel != nil {
		metrics = tel.Metrics()
	}
	return &PlaceOrderUseCase{
		deps:           deps,
		inst:           inst,
		ordersPlaced:   metrics.Counter(observability.MOrdersPlaced),
		stockConflicts: metrics.Counter(observability.MStockConflicts),
		extCounter:     metrics.Counter(observability.MExternalRequests),
		extHistogram:   metrics.Histogram(observability.MExternalRequestDuration),
	}
}

// line is a cart item joined with the live product it refers to.
type line struct {
	item    *cart.Item
	product *product.Product
}

func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderCommand) (_ *PlaceOrderResult, err error) {
	ctx, run := uc.inst.Begin(ctx, useCasePlaceOrder, "PlaceOrder",
		attribute.String("order.buyer_id", cmd.BuyerID),
		attribute.String("order.payment_method", cmd.PaymentMethod),
	)
	defer func() { run.End(err) }()
	logger := run.Logger()
	span := run.Span()

	method, err := uc.validate(cmd)
	if err != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, err
	}

	lines, err := uc.loadCart(ctx, cmd.BuyerID)
	if err != nil {
		return nil, err
	}
	if err := uc.precheck(lines); err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(lines))
	for _, l := range lines {
		it, ierr := order.NewItem(uc.deps.IDs.NewID(), l.product.ID, l.product.Name, l.item.Quantity, l.product.Price)
		if ierr != nil {
			run.Fail("ITEM_CONSTRUCTION_FAILED")
			return nil, fmt.Errorf("checkout: build item: %w", ierr)
		}
		items = append(items, it)
	}
	fee := uc.deps.Shipping.Fee(items)

	var gateway payment.Gateway
	if method.RequiresHostedCheckout() {
		gateway, _ = uc.deps.Payments.Lookup(method)
	}

	var (
		placed  *order.Order
		session *payment.Session
	)
	for attempt := 1; ; attempt++ {
		placed, session, err = uc.placeOnce(ctx, cmd, method, items, fee, gateway)
		if !errors.Is(err, order.ErrConflict) || attempt == maxNumberAttempts {
			break
		}
		logger.Warn("order_number_conflict", observability.F("attempt", attempt))
	}
	if err != nil {
		return nil, uc.classify(run, err)
	}
	run.Field("order_id", placed.ID)
	run.Field("order_number", placed.Number)

	if session != nil {
		// only the session column is written; the order may have moved on since commit
		if uerr := uc.deps.Orders.SetPaymentSession(ctx, placed.ID, session.ID); uerr != nil {
			run.Status("SESSION_PERSIST_FAILED")
			span.RecordError(uerr)
			logger.Error("payment_session_persist_failed",
				observability.F("order_id", placed.ID),
				observability.F("session_id", session.ID),
				observability.F("error", uerr.Error()),
			)
		} else {
			placed.PaymentSessionID = session.ID
		}
	}

	// the order is committed; everything below is best-effort
	if cerr := uc.deps.Carts.Clear(ctx, cmd.BuyerID); cerr != nil {
		run.Status("CART_CLEAR_FAILED")
		logger.Warn("cart_clear_failed",
			observability.F("buyer_id", cmd.BuyerID),
			observability.F("error", cerr.Error()),
		)
	}
	if perr := uc.publish(ctx, placed); perr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		span.RecordError(perr)
		logger.Warn("event_publish_failed",
			observability.F("event", publishEndpoint),
			observability.F("order_id", placed.ID),
			observability.F("error", perr.Error()),
		)
	}

	uc.ordersPlaced.Add(1, observability.L("payment_method", string(method)))
	span.SetAttributes(
		attribute.String("order.id", placed.ID),
		attribute.String("order.number", placed.Number),
		attribute.String("order.total", placed.Total().StringFixed(2)),
	)
	span.AddEvent("order.placed", trace.WithAttributes(attribute.String("order.id", placed.ID)))

	res := &PlaceOrderResult{Order: placed.Clone()}
	if session != nil {
		res.RedirectURL = session.RedirectURL
		res.RequiresPayment = true
	}
	return res, nil
}

func (uc *PlaceOrderUseCase) validate(cmd PlaceOrderCommand) (order.PaymentMethod, error) {
	f := apperr.Fields{}
	if strings.TrimSpace(cmd.BuyerID) == "" {
		f.Add("buyer_id", "The buyer is required.")
	}
	s := cmd.Shipping
	required := []struct{ field, value string }{
		{"shipping.fullName", s.FullName},
		{"shipping.phone", s.Phone},
		{"shipping.email", s.Email},
		{"shipping.address", s.Address},
		{"shipping.city", s.City},
		{"shipping.province", s.Province},
		{"shipping.postalCode", s.PostalCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			f.Add(r.field, fmt.Sprintf("The %s field is required.", r.field))
		}
	}
	if s.Email != "" && validate.Var(s.Email, "email") != nil {
		f.Add("shipping.email", "The shipping.email must be a valid email address.")
	}

	method, err := order.ParsePaymentMethod(cmd.PaymentMethod)
	switch {
	case err != nil:
		f.Add("payment_method", "The selected payment method is invalid.")
	case !uc.deps.Payments.Accepts(method):
		f.Add("payment_method", "The selected payment method is not available.")
	}
	return method, f.Err()
}

func (uc *PlaceOrderUseCase) loadCart(ctx context.Context, buyerID string) ([]line, error) {
	items, err := uc.deps.Carts.List(ctx, buyerID)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "load cart", Err: err}
	}
	lines := make([]line, 0, len(items))
	for _, it := range items {
		p, perr := uc.deps.Products.Get(ctx, it.ProductID)
		switch {
		case errors.Is(perr, product.ErrNotFound):
			continue
		case perr != nil:
			return nil, &apperr.PersistenceError{Op: "load product", Err: perr}
		}
		lines = append(lines, line{item: it, product: p})
	}
	if len(lines) == 0 {
		return nil, &apperr.EmptyCartError{}
	}
	return lines, nil
}

// precheck rejects the cart on its first unavailable line. The reservation inside the
// unit of work is still the authority; this only spares a transaction.
func (uc *PlaceOrderUseCase) precheck(lines []line) error {
	for _, l := range lines {
		if !l.product.IsActive {
			return apperr.Validation("cart", fmt.Sprintf("%s is no longer available.", l.product.Name))
		}
		if l.product.Stock < l.item.Quantity {
			uc.stockConflicts.Add(1, observability.L("stage", "precheck"))
			return &apperr.InsufficientStockError{
				ProductID:   l.product.ID,
				ProductName: l.product.Name,
				Available:   l.product.Stock,
				Requested:   l.item.Quantity,
			}
		}
	}
	return nil
}

func (uc *PlaceOrderUseCase) placeOnce(
	ctx context.Context,
	cmd PlaceOrderCommand,
	method order.PaymentMethod,
	items []order.Item,
	fee decimal.Decimal,
	gateway payment.Gateway,
) (*order.Order, *payment.Session, error) {
	o, err := order.New(order.Draft{
		ID:            uc.deps.IDs.NewID(),
		Number:        uc.deps.Numbers.Next(),
		BuyerID:       cmd.BuyerID,
		Shipping:      cmd.Shipping,
		PaymentMethod: method,
		Notes:         cmd.Notes,
		Items:         items,
		ShippingFee:   fee,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("checkout: construct order: %w", err)
	}

	var session *payment.Session
	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context, tx uow.Tx) error {
		if err := tx.Orders().Insert(ctx, o); err != nil {
			return err
		}
		for _, it := range o.Items {
			if err := tx.Inventory().Reserve(ctx, it.ProductID, it.Quantity); err != nil {
				return uc.reservationError(ctx, tx, it, err)
			}
		}
		if gateway == nil {
			return nil
		}
		s, err := gateway.CreateCheckoutSession(ctx, checkoutRequest(o))
		if err != nil {
			return &apperr.PaymentSessionError{Reason: "create checkout session", Err: err}
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return o, session, nil
}

func (uc *PlaceOrderUseCase) reservationError(ctx context.Context, tx uow.Tx, it order.Item, err error) error {
	switch {
	case errors.Is(err, inventory.ErrInsufficientStock):
		uc.stockConflicts.Add(1, observability.L("stage", "reserve"))
		available := 0
		if p, gerr := tx.Products().Get(ctx, it.ProductID); gerr == nil {
			available = p.Stock
		}
		return &apperr.InsufficientStockError{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Available:   available,
			Requested:   it.Quantity,
		}
	case errors.Is(err, inventory.ErrNotFound):
		return &apperr.NotFoundError{Resource: "product", ID: it.ProductID}
	default:
		return &apperr.PersistenceError{Op: "reserve stock", Err: err}
	}
}

func (uc *PlaceOrderUseCase) classify(run *application.Execution, err error) error {
	var appErr apperr.Error
	switch {
	case errors.As(err, &appErr):
		run.Fail(application.StatusFor(err))
		return err
	case errors.Is(err, order.ErrConflict):
		run.Fail("ORDER_NUMBER_EXHAUSTED")
		return &apperr.PersistenceError{Op: "insert order", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		run.Fail(application.StatusFor(err))
		return err
	default:
		run.Fail("TX_FAILED")
		return &apperr.PersistenceError{Op: "place order", Err: err}
	}
}

func (uc *PlaceOrderUseCase) publish(ctx context.Context, o *order.Order) error {
	if uc.deps.Publisher == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	start := time.Now()
	outcome := "success"

	err := uc.deps.Publisher.Publish(pubCtx, order.NewOrderPlacedEvent(o))
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}

	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", publishEndpoint),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", publishEndpoint),
	)
	return err
}

// checkoutRequest describes the persisted order snapshot to the gateway.
func checkoutRequest(o *order.Order) payment.CheckoutRequest {
	items := make([]payment.LineItem, 0, len(o.Items)+1)
	for _, it := range o.Items {
		items = append(items, payment.LineItem{
			Name:      it.ProductName,
			UnitPrice: it.Price,
			Quantity:  it.Quantity,
		})
	}
	if o.ShippingFee.IsPositive() {
		items = append(items, payment.LineItem{
			Name:      "Shipping",
			UnitPrice: o.ShippingFee,
			Quantity:  1,
		})
	}
	return payment.CheckoutRequest{
		OrderNumber:   o.Number,
		BuyerID:       o.BuyerID,
		CustomerEmail: o.Shipping.Email,
		Items:         items,
	}
}
