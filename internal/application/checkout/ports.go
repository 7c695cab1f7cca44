package checkout

import (
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/uow"
	"github.com/shopspring/decimal"
)

type IDGenerator interface {
	NewID() string
}

// OrderNumberGenerator hands out human-shareable order numbers.
// Uniqueness is enforced by the order repository, not by the generator.
type OrderNumberGenerator interface {
	Next() string
}

// ShippingPolicy prices the delivery of an order.
type ShippingPolicy interface {
	Fee(items []order.Item) decimal.Decimal
}

// FlatFee charges the same amount for every order. The zero value ships for free.
type FlatFee struct {
	Amount decimal.Decimal
}

func (f FlatFee) Fee([]order.Item) decimal.Decimal { return f.Amount }

// PaymentMethods resolves the hosted checkout gateway of a payment method.
type PaymentMethods interface {
	Lookup(method order.PaymentMethod) (payment.Gateway, bool)
	Accepts(method order.PaymentMethod) bool
}

// Deps are the collaborators shared by the checkout use cases.
// Numbers and Shipping fall back to NewNumberGenerator and FlatFee{}.
type Deps struct {
	Tx        uow.Transactor
	Carts     cart.Repository
	Products  product.Repository
	Orders    order.Repository
	Payments  PaymentMethods
	IDs       IDGenerator
	Numbers   OrderNumberGenerator
	Shipping  ShippingPolicy
	Publisher domoutbox.Publisher
}

func (d Deps) withDefaults() Deps {
	if d.Numbers == nil {
		d.Numbers = NewNumberGenerator()
	}
	if d.Shipping == nil {
		d.Shipping = FlatFee{}
	}
	return d
}
