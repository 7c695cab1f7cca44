// Package httppresentation exposes the marketplace over a JSON REST API.
package httppresentation

import (
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/auth"
	appcart "github.com/Zhima-Mochi/minishop-marketplace/internal/application/cart"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
)

type Services struct {
	Auth     *auth.Service
	Catalog  *catalog.Service
	Cart     *appcart.Service
	Checkout *checkout.Service
}

type Config struct {
	// AllowedOrigins are the buyer and seller storefronts.
	AllowedOrigins []string
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
}

type Handler struct {
	auth     *auth.Service
	catalog  *catalog.Service
	cart     *appcart.Service
	checkout *checkout.Service

	cfg     Config
	log     observability.Logger
	metrics observability.Metrics
	now     func() time.Time
}

func NewHandler(svc Services, cfg Config, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	useJSONFieldNames()
	return &Handler{
		auth:     svc.Auth,
		catalog:  svc.Catalog,
		cart:     svc.Cart,
		checkout: svc.Checkout,
		cfg:      cfg,
		log:      tel.Logger().With(observability.F("component", componentHTTPHandler)),
		metrics:  tel.Metrics(),
		now:      time.Now,
	}
}

// Router wires every route with middlewares:
// Recovery → CORS → Trace → request logger → HTTP metrics → access log → (auth) → handler
func (h *Handler) Router() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), h.cors())
	r.Use(
		h.withTrace(),
		ObservabilityMiddleware(h.log, func(r *http.Request) string {
			return r.Header.Get(headerRequestID)
		}),
		h.withHTTPMetrics(),
		h.withAccessLog(),
	)

	if h.cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.cfg.Metrics))
	}

	api := r.Group("/api")
	api.GET("/health", h.handleHealth)

	products := api.Group("/products")
	products.GET("", h.handlePublicProducts)
	products.GET("/categories", h.handleCategories)
	products.GET("/:id", h.handlePublicProduct)

	seller := api.Group("/seller")
	seller.POST("/register", h.handleSellerRegister)
	seller.POST("/login", h.handleLogin(user.RoleSeller))

	sellerAuth := seller.Group("", h.requireRole(user.RoleSeller))
	sellerAuth.POST("/logout", h.handleLogout)
	sellerAuth.GET("/profile", h.handleProfile(user.RoleSeller))
	sellerAuth.GET("/products", h.handleSellerProducts)
	sellerAuth.POST("/products", h.handleCreateProduct)
	sellerAuth.GET("/products/:id", h.handleSellerProduct)
	sellerAuth.PUT("/products/:id", h.handleUpdateProduct)
	sellerAuth.DELETE("/products/:id", h.handleDeleteProduct)
	sellerAuth.GET("/products-stats", h.handleProductStats)

	buyer := api.Group("/buyer")
	buyer.POST("/register", h.handleBuyerRegister)
	buyer.POST("/login", h.handleLogin(user.RoleBuyer))

	buyerAuth := buyer.Group("", h.requireRole(user.RoleBuyer))
	buyerAuth.POST("/logout", h.handleLogout)
	buyerAuth.GET("/profile", h.handleProfile(user.RoleBuyer))
	buyerAuth.GET("/cart", h.handleViewCart)
	buyerAuth.GET("/cart/count", h.handleCartCount)
	buyerAuth.POST("/cart", h.handleAddToCart)
	buyerAuth.PUT("/cart/:id", h.handleUpdateCartItem)
	buyerAuth.DELETE("/cart/:id", h.handleRemoveCartItem)
	buyerAuth.DELETE("/cart", h.handleClearCart)
	buyerAuth.POST("/orders", h.handlePlaceOrder)
	buyerAuth.GET("/orders", h.handleListOrders)
	buyerAuth.POST("/orders/verify-payment", h.handleVerifyPayment)
	buyerAuth.GET("/orders/:id", h.handleGetOrder)
	buyerAuth.POST("/orders/:id/cancel", h.handleCancelOrder)

	return r
}

func (h *Handler) cors() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", headerRequestID},
		ExposeHeaders:    []string{headerRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(h.cfg.AllowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = h.cfg.AllowedOrigins
	}
	return cors.New(cfg)
}

type healthResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Success:   true,
		Message:   "E-Commerce API is running",
		Timestamp: h.now().UTC(),
	})
}
