package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: number already exists")
	ErrStale                  = errors.New("order: changed since it was read")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
	ErrNoItems                = errors.New("order: at least one item is required")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidPrice           = errors.New("order: price must be zero or greater")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodCOD    PaymentMethod = "cod"
	MethodStripe PaymentMethod = "stripe"
	MethodPayPal PaymentMethod = "paypal"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCOD, MethodStripe, MethodPayPal:
		return true
	}
	return false
}

// RequiresHostedCheckout reports whether the buyer pays through an external checkout page.
func (m PaymentMethod) RequiresHostedCheckout() bool {
	return m == MethodStripe
}

// ParsePaymentMethod accepts the lowercase wire names only.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.TrimSpace(s))
	if !m.Valid() {
		return "", fmt.Errorf("order: unknown payment method %q", s)
	}
	return m, nil
}

type Shipping struct {
	FullName   string
	Phone      string
	Email      string
	Address    string
	City       string
	Province   string
	PostalCode string
}

// Item snapshots the product at the moment the order was placed.
type Item struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Subtotal    decimal.Decimal
}

// NewItem builds a line whose subtotal is derived from price and quantity.
func NewItem(id, productID, productName string, quantity int, price decimal.Decimal) (Item, error) {
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	if price.IsNegative() {
		return Item{}, ErrInvalidPrice
	}
	return Item{
		ID:          id,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		Price:       price,
		Subtotal:    price.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

type Order struct {
	ID               string
	Number           string
	BuyerID          string
	Shipping         Shipping
	Subtotal         decimal.Decimal
	ShippingFee      decimal.Decimal
	PaymentMethod    PaymentMethod
	PaymentStatus    PaymentStatus
	Status           Status
	PaymentSessionID string
	Notes            string
	Items            []Item
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Draft carries everything needed to open a new order.
type Draft struct {
	ID            string
	Number        string
	BuyerID       string
	Shipping      Shipping
	PaymentMethod PaymentMethod
	Notes         string
	Items         []Item
	ShippingFee   decimal.Decimal
}

// New opens a pending order. The subtotal is the sum of the item subtotals.
func New(d Draft) (*Order, error) {
	if len(d.Items) == 0 {
		return nil, ErrNoItems
	}
	if !d.PaymentMethod.Valid() {
		return nil, fmt.Errorf("order: unknown payment method %q", d.PaymentMethod)
	}
	subtotal := decimal.Zero
	items := make([]Item, len(d.Items))
	for i, it := range d.Items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if it.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		it.OrderID = d.ID
		items[i] = it
		subtotal = subtotal.Add(it.Subtotal)
	}

	now := time.Now().UTC()
	return &Order{
		ID:            d.ID,
		Number:        d.Number,
		BuyerID:       d.BuyerID,
		Shipping:      d.Shipping,
		Subtotal:      subtotal,
		ShippingFee:   d.ShippingFee,
		PaymentMethod: d.PaymentMethod,
		PaymentStatus: PaymentPending,
		Status:        StatusPending,
		Notes:         d.Notes,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Total is always derived; it is never stored independently of its parts.
func (o *Order) Total() decimal.Decimal {
	return o.Subtotal.Add(o.ShippingFee)
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]Item(nil), o.Items...)
	return &c
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
