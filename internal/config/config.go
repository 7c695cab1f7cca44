// Package config loads service settings from the environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	HTTPAddr    string

	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	StripeSecretKey string
	StripeCurrency  string
	PaymentTimeout  time.Duration
	// PayPalEnabled registers paypal as a deferred method settled outside the API.
	PayPalEnabled bool

	BuyerFrontendURL  string
	SellerFrontendURL string

	ShippingFee decimal.Decimal

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	ShutdownTimeout time.Duration
}

// Load reads .env files (missing files are ignored) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []error
	duration := func(key string, def time.Duration) time.Duration {
		raw := env(key, "")
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return def
		}
		return d
	}
	integer := func(key string, def int) int {
		raw := env(key, "")
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return def
		}
		return n
	}
	boolean := func(key string, def bool) bool {
		raw := env(key, "")
		if raw == "" {
			return def
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return def
		}
		return b
	}

	fee := decimal.Zero
	if raw := env("SHIPPING_FEE", ""); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("SHIPPING_FEE: %w", err))
		} else {
			fee = d
		}
	}

	cfg := Config{
		ServiceName:       env("SERVICE_NAME", "minishop"),
		Env:               env("ENV", "dev"),
		LogLevel:          env("LOG_LEVEL", "info"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		DatabaseURL:       env("DATABASE_URL", ""),
		JWTSecret:         env("JWT_SECRET", ""),
		JWTTTL:            duration("JWT_TTL", 24*time.Hour),
		StripeSecretKey:   env("STRIPE_SECRET_KEY", ""),
		StripeCurrency:    env("STRIPE_CURRENCY", "php"),
		PaymentTimeout:    duration("PAYMENT_TIMEOUT", 10*time.Second),
		PayPalEnabled:     boolean("PAYPAL_ENABLED", true),
		BuyerFrontendURL:  env("BUYER_FRONTEND_URL", "http://localhost:8081"),
		SellerFrontendURL: env("SELLER_FRONTEND_URL", "http://localhost:5173"),
		ShippingFee:       fee,
		SMTPHost:          env("SMTP_HOST", ""),
		SMTPPort:          integer("SMTP_PORT", 587),
		SMTPUser:          env("SMTP_USER", ""),
		SMTPPassword:      env("SMTP_PASSWORD", ""),
		MailFrom:          env("MAIL_FROM", "no-reply@minishop.local"),
		ShutdownTimeout:   duration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if len(errs) > 0 {
		return cfg, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// DevSecret signs tokens in dev and test when JWT_SECRET is unset.
const DevSecret = "minishop-dev-secret"

// Development reports whether the service runs in a local or test environment.
func (c Config) Development() bool {
	return c.Env == "dev" || c.Env == "test"
}

// Validate rejects settings the service cannot run with. A missing JWT secret is
// only tolerated in development, where DevSecret is used instead.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		if c.Development() {
			c.JWTSecret = DevSecret
		} else {
			errs = append(errs, errors.New("JWT_SECRET is required outside dev/test"))
		}
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.PaymentTimeout <= 0 {
		errs = append(errs, errors.New("PAYMENT_TIMEOUT must be positive"))
	}
	if c.ShippingFee.IsNegative() {
		errs = append(errs, errors.New("SHIPPING_FEE must not be negative"))
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("SMTP_PORT %d out of range", c.SMTPPort))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
