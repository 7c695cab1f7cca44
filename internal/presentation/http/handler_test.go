package httppresentation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/auth"
	appcart "github.com/Zhima-Mochi/minishop-marketplace/internal/application/cart"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/memory"
	infrapayment "github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/payment"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unpaidGateway struct{}

func (unpaidGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	return &payment.Session{ID: "cs_" + req.OrderNumber, RedirectURL: "https://checkout.example/" + req.OrderNumber}, nil
}

func (unpaidGateway) GetSessionStatus(context.Context, string) (*payment.SessionStatus, error) {
	return &payment.SessionStatus{Status: payment.StatusUnpaid, Amount: decimal.NewFromInt(200)}, nil
}

type api struct {
	t      *testing.T
	router http.Handler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	users := memory.NewUserRepository()
	carts := memory.NewCartRepository()
	ids := id.NewUUIDGenerator()
	payments := infrapayment.NewRegistry()
	payments.Register(order.MethodStripe, unpaidGateway{})

	h := NewHandler(Services{
		Auth:    auth.NewService(users, ids, auth.NewTokens("test-secret", time.Hour), nil),
		Catalog: catalog.NewService(store.Products(), users, ids, nil),
		Cart:    appcart.NewService(carts, store.Products(), users, ids, nil),
		Checkout: checkout.NewService(checkout.Deps{
			Tx:       store,
			Carts:    carts,
			Products: store.Products(),
			Orders:   store.Orders(),
			Payments: payments,
			IDs:      ids,
		}, nil),
	}, Config{
		AllowedOrigins: []string{"http://localhost:8081"},
		Metrics:        http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
	}, nil)
	return &api{t: t, router: h.Router()}
}

type reply struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func (a *api) do(method, path, token string, body any) (*httptest.ResponseRecorder, reply) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var r reply
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(rec.Body.Bytes(), &r)
	}
	return rec, r
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (a *api) registerSeller() string {
	rec, r := a.do(http.MethodPost, "/api/seller/register", "", gin.H{
		"first_name":            "Juan",
		"last_name":             "Cruz",
		"email":                 "juan@example.com",
		"password":              "longsecret",
		"password_confirmation": "longsecret",
		"store_name":            "Juan's Goods",
		"phone":                 "09171234567",
		"terms_accepted":        true,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionView](a.t, r.Data).Token
}

func (a *api) registerBuyer(email string) string {
	rec, r := a.do(http.MethodPost, "/api/buyer/register", "", gin.H{
		"name":                  "Maria Santos",
		"email":                 email,
		"password":              "secret1",
		"password_confirmation": "secret1",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionView](a.t, r.Data).Token
}

func (a *api) createProduct(seller, sku string, price, stock int) productView {
	rec, r := a.do(http.MethodPost, "/api/seller/products", seller, gin.H{
		"name":     "Product " + sku,
		"sku":      sku,
		"category": "Apparel",
		"price":    price,
		"stock":    stock,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[productView](a.t, r.Data)
}

func shipping() gin.H {
	return gin.H{
		"fullName":   "Maria Santos",
		"phone":      "09170000000",
		"email":      "maria@example.com",
		"address":    "1 Rizal St",
		"city":       "Manila",
		"province":   "Metro Manila",
		"postalCode": "1000",
	}
}

func TestHealthAndRequestID(t *testing.T) {
	a := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(headerRequestID, "req-42")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(headerRequestID))
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "E-Commerce API is running", body.Message)

	rec, _ = a.do(http.MethodGet, "/api/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID), "a request id is generated when absent")

	rec, _ = a.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestAuthGuards(t *testing.T) {
	a := newAPI(t)
	buyer := a.registerBuyer("maria@example.com")

	rec, r := a.do(http.MethodGet, "/api/buyer/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, r.Success)

	rec, _ = a.do(http.MethodGet, "/api/seller/products", buyer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, r = a.do(http.MethodGet, "/api/buyer/profile", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Maria Santos", decode[userView](t, r.Data).Name)

	rec, r = a.do(http.MethodPost, "/api/seller/login", "", gin.H{"email": "maria@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "This account is not registered as a seller account.", r.Message)

	rec, r = a.do(http.MethodPost, "/api/buyer/login", "", gin.H{"email": "nobody@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No account found with this email address.", r.Message)

	rec, r = a.do(http.MethodPost, "/api/buyer/login", "", gin.H{"email": "maria@example.com", "password": "wrong12"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid password.", r.Message)

	rec, r = a.do(http.MethodPost, "/api/buyer/login", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, r.Errors, "email")
	assert.Contains(t, r.Errors, "password")
}

func TestCatalogEndpoints(t *testing.T) {
	a := newAPI(t)
	seller := a.registerSeller()
	p := a.createProduct(seller, "SH-1", 100, 5)
	assert.Equal(t, "100.00", p.Price)
	assert.True(t, p.IsActive)

	rec, r := a.do(http.MethodPost, "/api/seller/products", seller, gin.H{"name": "No SKU"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, r.Errors, "sku")

	rec, r = a.do(http.MethodPut, "/api/seller/products/"+p.ID, seller, gin.H{"stock": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[productView](t, r.Data).Stock)

	rec, r = a.do(http.MethodGet, "/api/seller/products-stats", seller, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, statsView{TotalProducts: 1, ActiveProducts: 1, LowStock: 1}, decode[statsView](t, r.Data))

	rec, r = a.do(http.MethodGet, "/api/products?search=product&sort_by=price&sort_order=asc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[pageView](t, r.Data)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Juan's Goods", page.Data[0].StoreName)
	assert.Equal(t, 12, page.PerPage)

	rec, _ = a.do(http.MethodGet, "/api/products?min_price=abc", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, r = a.do(http.MethodGet, "/api/products/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Apparel"}, decode[[]string](t, r.Data))

	other := a.registerOtherSeller()
	rec, _ = a.do(http.MethodGet, "/api/seller/products/"+p.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "foreign products are hidden")

	rec, _ = a.do(http.MethodDelete, "/api/seller/products/"+p.ID, seller, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, r = a.do(http.MethodGet, "/api/products/"+p.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", r.Message)
}

// registerOtherSeller registers a second store so ownership checks have a foreign seller.
func (a *api) registerOtherSeller() string {
	rec, r := a.do(http.MethodPost, "/api/seller/register", "", gin.H{
		"first_name":            "Ana",
		"last_name":             "Reyes",
		"email":                 "ana@example.com",
		"password":              "longsecret",
		"password_confirmation": "longsecret",
		"store_name":            "Ana's Crafts",
		"phone":                 "09179999999",
		"terms_accepted":        true,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionView](a.t, r.Data).Token
}

func TestCartAndCheckoutFlow(t *testing.T) {
	a := newAPI(t)
	seller := a.registerSeller()
	p := a.createProduct(seller, "SH-1", 100, 5)
	buyer := a.registerBuyer("maria@example.com")

	rec, r := a.do(http.MethodPost, "/api/buyer/orders", buyer, gin.H{"shipping": shipping(), "payment_method": "cod"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cart is empty", r.Message)

	rec, r = a.do(http.MethodPost, "/api/buyer/cart", buyer, gin.H{"product_id": p.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Item added to cart", r.Message)
	rec, r = a.do(http.MethodPost, "/api/buyer/cart", buyer, gin.H{"product_id": p.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cart updated successfully", r.Message)

	rec, r = a.do(http.MethodPost, "/api/buyer/cart", buyer, gin.H{"product_id": p.ID, "quantity": 9})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Insufficient stock for Product SH-1. Only 5 available.", r.Message)
	stock := decode[map[string]any](t, r.Data)
	assert.Equal(t, p.ID, stock["product_id"])
	assert.EqualValues(t, 5, stock["available"])

	rec, r = a.do(http.MethodGet, "/api/buyer/cart", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[cartView](t, r.Data)
	assert.Equal(t, "200.00", cart.Total)
	assert.Equal(t, 2, cart.Count)
	assert.Equal(t, "Juan's Goods", cart.Items[0].Product.Seller)

	rec, r = a.do(http.MethodPost, "/api/buyer/orders", buyer, gin.H{"shipping": gin.H{}, "payment_method": "bitcoin"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, r.Errors, "shipping.fullName")
	assert.Contains(t, r.Errors, "payment_method")

	rec, r = a.do(http.MethodPost, "/api/buyer/orders", buyer, gin.H{"shipping": shipping(), "payment_method": "cod", "order_notes": "Leave at gate"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Order created successfully", r.Message)
	placed := decode[placeOrderView](t, r.Data)
	assert.False(t, placed.RequiresPayment)
	assert.Empty(t, placed.RedirectURL)
	assert.Equal(t, "200.00", placed.Order.Total)
	assert.Regexp(t, `^ORD-[0-9A-Z]{11}$`, placed.Order.OrderNumber)
	assert.Equal(t, order.StatusPending, placed.Order.Status)

	rec, r = a.do(http.MethodGet, "/api/buyer/cart/count", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[map[string]int](t, r.Data)["count"])

	rec, r = a.do(http.MethodGet, "/api/products/"+p.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[productView](t, r.Data).Stock)

	other := a.registerBuyer("other@example.com")
	rec, _ = a.do(http.MethodGet, "/api/buyer/orders/"+placed.Order.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, r = a.do(http.MethodGet, "/api/buyer/orders", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orderView](t, r.Data), 1)

	rec, r = a.do(http.MethodPost, "/api/buyer/orders/"+placed.Order.ID+"/cancel", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Order cancelled and stock restored", r.Message)

	rec, r = a.do(http.MethodPost, "/api/buyer/orders/"+placed.Order.ID+"/cancel", buyer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only pending orders can be cancelled", r.Message)

	rec, r = a.do(http.MethodGet, "/api/products/"+p.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[productView](t, r.Data).Stock)
}

func TestHostedCheckoutAndVerification(t *testing.T) {
	a := newAPI(t)
	seller := a.registerSeller()
	p := a.createProduct(seller, "SH-1", 100, 5)
	buyer := a.registerBuyer("maria@example.com")

	rec, _ := a.do(http.MethodPost, "/api/buyer/cart", buyer, gin.H{"product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, r := a.do(http.MethodPost, "/api/buyer/orders", buyer, gin.H{"shipping": shipping(), "payment_method": "stripe"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decode[placeOrderView](t, r.Data)
	assert.True(t, placed.RequiresPayment)
	assert.Equal(t, "https://checkout.example/"+placed.Order.OrderNumber, placed.RedirectURL)

	rec, r = a.do(http.MethodPost, "/api/buyer/orders/verify-payment", buyer, gin.H{"session_id": "cs_" + placed.Order.OrderNumber})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Payment verification failed", r.Message)

	rec, r = a.do(http.MethodPost, "/api/buyer/orders/verify-payment", buyer, gin.H{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, r.Errors, "session_id")
}
