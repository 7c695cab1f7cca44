// Package notification sends the order confirmation once an order is placed.
package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers one message. Implementations must honor ctx cancellation.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var paymentLabels = map[order.PaymentMethod]string{
	order.MethodCOD:    "Cash on Delivery",
	order.MethodStripe: "Credit/Debit Card (Stripe)",
	order.MethodPayPal: "PayPal",
}

// RenderConfirmation builds the plain-text confirmation addressed to the shipping contact.
func RenderConfirmation(o order.Order) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", o.Shipping.FullName)
	fmt.Fprintf(&b, "Thank you for your order! Your order number is %s.\n\n", o.Number)

	b.WriteString("Items:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %d x %s @ %s = %s\n",
			it.Quantity, it.ProductName, it.Price.StringFixed(2), it.Subtotal.StringFixed(2))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", o.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Shipping: %s\n", o.ShippingFee.StringFixed(2))
	fmt.Fprintf(&b, "Total:    %s\n\n", o.Total().StringFixed(2))

	label, ok := paymentLabels[o.PaymentMethod]
	if !ok {
		label = string(o.PaymentMethod)
	}
	fmt.Fprintf(&b, "Payment method: %s\n\n", label)

	s := o.Shipping
	b.WriteString("Shipping to:\n")
	fmt.Fprintf(&b, "  %s\n  %s\n  %s, %s %s\n  %s\n", s.FullName, s.Address, s.City, s.Province, s.PostalCode, s.Phone)
	if o.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", o.Notes)
	}

	return Message{
		To:      s.Email,
		Subject: "Order Confirmation - " + o.Number,
		Body:    b.String(),
	}
}
