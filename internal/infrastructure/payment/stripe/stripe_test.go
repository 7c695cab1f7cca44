package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, h http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	gw, err := New(Config{
		SecretKey:   "sk_test_123",
		FrontendURL: "http://shop.test/",
		BackendURL:  srv.URL,
		HTTPClient:  srv.Client(),
	}, nil)
	require.NoError(t, err)
	return gw
}

func TestCreateCheckoutSessionSendsOrderSnapshot(t *testing.T) {
	var form url.Values
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		form = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.test/pay/cs_test_1"}`))
	})

	sess, err := gw.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{
		OrderNumber:   "ORD-LZ3K9Q1AB2C",
		BuyerID:       "u1",
		CustomerEmail: "ana@shop.io",
		Items: []domain.LineItem{
			{Name: "Linen Shirt", Description: "Apparel", UnitPrice: decimal.RequireFromString("499.99"), Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, "https://checkout.stripe.test/pay/cs_test_1", sess.RedirectURL)

	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "php", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "49999", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "2", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "Linen Shirt", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "http://shop.test/checkout/success?session_id={CHECKOUT_SESSION_ID}", form.Get("success_url"))
	assert.Equal(t, "http://shop.test/checkout/cancel", form.Get("cancel_url"))
	assert.Equal(t, "ana@shop.io", form.Get("customer_email"))
	assert.Equal(t, "ORD-LZ3K9Q1AB2C", form.Get("metadata[order_number]"))
	assert.Equal(t, "u1", form.Get("metadata[user_id]"))
}

func TestGetSessionStatus(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","payment_status":"paid","amount_total":99998,"metadata":{"order_number":"ORD-1","user_id":"u1"}}`))
	})

	status, err := gw.GetSessionStatus(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.True(t, status.Paid())
	assert.True(t, status.Amount.Equal(decimal.RequireFromString("999.98")), status.Amount.String())
	assert.Equal(t, "ORD-1", status.Metadata["order_number"])
}

func TestGetSessionStatusNotFound(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such checkout.session"}}`))
	})

	_, err := gw.GetSessionStatus(context.Background(), "cs_missing")
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound), err)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{FrontendURL: "http://shop.test"}, nil)
	assert.Error(t, err)

	_, err = New(Config{SecretKey: "sk"}, nil)
	assert.Error(t, err)
}
