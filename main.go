package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/auth"
	appcart "github.com/Zhima-Mochi/minishop-marketplace/internal/application/cart"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/notification"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/config"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/mail"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/payment"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/payment/stripe"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-marketplace/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-marketplace/internal/presentation/worker"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// repositories is the storage backend selected at startup.
type repositories struct {
	tx       uow.Transactor
	products product.Repository
	orders   order.Repository
	carts    cart.Repository
	users    user.Repository
}

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		zap.L().Fatal("config_invalid", zap.Error(err))
	}

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	systemLogger := zaplogger.New(baseLogger, observability.F("component", "system"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	counters, histograms := prometrics.Standard(prometrics.New("minishop", "", reg))
	tel := infraobs.New(oteltrace.New(cfg.ServiceName), zaplogger.New(baseLogger), counters, histograms)

	repos, closeStore, err := openRepositories(cfg, tel.Logger())
	if err != nil {
		systemLogger.Error("store_open_failed", observability.F("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	payments, err := paymentMethods(cfg, tel)
	if err != nil {
		systemLogger.Error("payment_setup_failed", observability.F("error", err.Error()))
		os.Exit(1)
	}

	mailer, err := newMailer(cfg, tel.Logger())
	if err != nil {
		systemLogger.Error("mailer_setup_failed", observability.F("error", err.Error()))
		os.Exit(1)
	}

	// In-process event bus delivering order events to the notification worker.
	bus := outbox.NewBus(tel.Logger())
	notification.NewWorker(workerpresentation.NewSubscriber(bus, tel), mailer, tel).Start()
	bus.Start(context.Background())

	ids := id.NewUUIDGenerator()
	handler := httppresentation.NewHandler(httppresentation.Services{
		Auth:    auth.NewService(repos.users, ids, auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL), tel),
		Catalog: catalog.NewService(repos.products, repos.users, ids, tel),
		Cart:    appcart.NewService(repos.carts, repos.products, repos.users, ids, tel),
		Checkout: checkout.NewService(checkout.Deps{
			Tx:        repos.tx,
			Carts:     repos.carts,
			Products:  repos.products,
			Orders:    repos.orders,
			Payments:  payments,
			IDs:       ids,
			Shipping:  checkout.FlatFee{Amount: cfg.ShippingFee},
			Publisher: bus,
		}, tel),
	}, httppresentation.Config{
		AllowedOrigins: []string{cfg.BuyerFrontendURL, cfg.SellerFrontendURL},
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				observability.F("error", err.Error()),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			observability.F("error", err.Error()),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
	bus.Stop(shutdownCtx)
}

// openRepositories uses PostgreSQL when DATABASE_URL is set and the in-memory store otherwise.
func openRepositories(cfg config.Config, logger observability.Logger) (repositories, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("store_in_memory", observability.F("reason", "DATABASE_URL is not set"))
		store := memory.NewStore()
		return repositories{
			tx:       store,
			products: store.Products(),
			orders:   store.Orders(),
			carts:    memory.NewCartRepository(),
			users:    memory.NewUserRepository(),
		}, func() {}, nil
	}

	db, err := postgres.Open(postgres.Config{DSN: cfg.DatabaseURL}, logger)
	if err != nil {
		return repositories{}, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := postgres.Migrate(ctx, db); err != nil {
		closeDB()
		return repositories{}, nil, err
	}
	store := postgres.NewStore(db)
	return repositories{
		tx:       store,
		products: store.Products(),
		orders:   store.Orders(),
		carts:    store.Carts(),
		users:    store.Users(),
	}, closeDB, nil
}

// paymentMethods registers stripe when a secret key is configured. Without it,
// stripe orders are rejected as an unavailable payment method.
func paymentMethods(cfg config.Config, tel observability.Observability) (*payment.Registry, error) {
	registry := payment.NewRegistry()
	if !cfg.PayPalEnabled {
		registry.Disable(order.MethodPayPal)
	}
	if cfg.StripeSecretKey == "" {
		tel.Logger().Warn("stripe_disabled", observability.F("reason", "STRIPE_SECRET_KEY is not set"))
		return registry, nil
	}
	gw, err := stripe.New(stripe.Config{
		SecretKey:   cfg.StripeSecretKey,
		Currency:    cfg.StripeCurrency,
		FrontendURL: cfg.BuyerFrontendURL,
	}, tel.Logger())
	if err != nil {
		return nil, err
	}
	registry.Register(order.MethodStripe, payment.Instrument(gw, stripe.Peer, cfg.PaymentTimeout, tel))
	return registry, nil
}

func newMailer(cfg config.Config, logger observability.Logger) (notification.Mailer, error) {
	if cfg.SMTPHost == "" {
		return mail.NewLogMailer(logger), nil
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
}
