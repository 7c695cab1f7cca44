// Package stripe opens and inspects Stripe Checkout Sessions.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const (
	DefaultCurrency = "php"
	// Peer labels external metrics for calls made by this adapter.
	Peer = "stripe"
)

type Config struct {
	SecretKey string
	Currency  string
	// FrontendURL is the buyer storefront origin the hosted page returns to.
	FrontendURL string
	// BackendURL overrides the Stripe API origin.
	BackendURL string
	HTTPClient *http.Client
}

type Gateway struct {
	api         *client.API
	currency    string
	successURL  string
	cancelURL   string
	minorFactor decimal.Decimal
}

var _ domain.Gateway = (*Gateway)(nil)

func New(cfg Config, logger observability.Logger) (*Gateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	if cfg.FrontendURL == "" {
		return nil, errors.New("stripe: frontend url is required")
	}
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	backendCfg := &stripeapi.BackendConfig{
		HTTPClient:        httpClient,
		LeveledLogger:     newLeveledLogger(logger),
		MaxNetworkRetries: stripeapi.Int64(0),
	}
	if cfg.BackendURL != "" {
		backendCfg.URL = stripeapi.String(cfg.BackendURL)
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, &stripeapi.Backends{
		API:     stripeapi.GetBackendWithConfig(stripeapi.APIBackend, backendCfg),
		Connect: stripeapi.GetBackendWithConfig(stripeapi.ConnectBackend, backendCfg),
		Uploads: stripeapi.GetBackendWithConfig(stripeapi.UploadsBackend, backendCfg),
	})

	base := strings.TrimRight(cfg.FrontendURL, "/")
	return &Gateway{
		api:         api,
		currency:    currency,
		successURL:  base + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:   base + "/checkout/cancel",
		minorFactor: decimal.NewFromInt(100),
	}, nil
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.Session, error) {
	if len(req.Items) == 0 {
		return nil, errors.New("stripe: checkout needs at least one line item")
	}
	params := g.sessionParams(req)
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return &domain.Session{ID: sess.ID, RedirectURL: sess.URL}, nil
}

func (g *Gateway) GetSessionStatus(ctx context.Context, sessionID string) (*domain.SessionStatus, error) {
	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		var serr *stripeapi.Error
		if errors.As(err, &serr) && serr.HTTPStatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("stripe: %w", domain.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("stripe: get checkout session: %w", err)
	}
	return g.statusOf(sess), nil
}

func (g *Gateway) sessionParams(req domain.CheckoutRequest) *stripeapi.CheckoutSessionParams {
	items := make([]*stripeapi.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, it := range req.Items {
		productData := &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripeapi.String(it.Name),
		}
		if it.Description != "" {
			productData.Description = stripeapi.String(it.Description)
		}
		if it.ImageURL != "" {
			productData.Images = stripeapi.StringSlice([]string{it.ImageURL})
		}
		items = append(items, &stripeapi.CheckoutSessionLineItemParams{
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripeapi.String(g.currency),
				ProductData: productData,
				UnitAmount:  stripeapi.Int64(g.toMinor(it.UnitPrice)),
			},
			Quantity: stripeapi.Int64(int64(it.Quantity)),
		})
	}

	params := &stripeapi.CheckoutSessionParams{
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
		LineItems:          items,
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SuccessURL:         stripeapi.String(g.successURL),
		CancelURL:          stripeapi.String(g.cancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripeapi.String(req.CustomerEmail)
	}
	params.AddMetadata("order_number", req.OrderNumber)
	params.AddMetadata("user_id", req.BuyerID)
	return params
}

func (g *Gateway) statusOf(sess *stripeapi.CheckoutSession) *domain.SessionStatus {
	meta := make(map[string]string, len(sess.Metadata))
	for k, v := range sess.Metadata {
		meta[k] = v
	}
	return &domain.SessionStatus{
		Status:   string(sess.PaymentStatus),
		Amount:   decimal.NewFromInt(sess.AmountTotal).Div(g.minorFactor),
		Metadata: meta,
	}
}

// toMinor converts a major-unit price into the smallest currency unit, rounding half away from zero.
func (g *Gateway) toMinor(price decimal.Decimal) int64 {
	return price.Mul(g.minorFactor).Round(0).IntPart()
}
