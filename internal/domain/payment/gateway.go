package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrSessionNotFound = errors.New("payment: session not found")

// Status values reported by hosted checkout providers.
const (
	StatusPaid              = "paid"
	StatusUnpaid            = "unpaid"
	StatusNoPaymentRequired = "no_payment_required"
)

type LineItem struct {
	Name        string
	Description string
	ImageURL    string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// CheckoutRequest describes the order a hosted checkout session is opened for.
type CheckoutRequest struct {
	OrderNumber   string
	BuyerID       string
	CustomerEmail string
	Items         []LineItem
}

type Session struct {
	ID          string
	RedirectURL string
}

type SessionStatus struct {
	Status   string
	Amount   decimal.Decimal
	Metadata map[string]string
}

func (s *SessionStatus) Paid() bool {
	return s != nil && s.Status == StatusPaid
}

// Gateway is a hosted checkout provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	GetSessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error)
}
