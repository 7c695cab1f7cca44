package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, "minishop", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "php", cfg.StripeCurrency)
	assert.Equal(t, 10*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "http://localhost:8081", cfg.BuyerFrontendURL)
	assert.True(t, cfg.ShippingFee.IsZero())
	assert.True(t, cfg.PayPalEnabled)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DevSecret, cfg.JWTSecret)
}

func TestOverridesAndParseErrors(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"PAYMENT_TIMEOUT": "3s",
		"SHIPPING_FEE":    "49.50",
		"SMTP_PORT":       "2525",
		"PAYPAL_ENABLED":  "false",
	}))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.PaymentTimeout)
	assert.True(t, cfg.ShippingFee.Equal(decimal.RequireFromString("49.5")))
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.False(t, cfg.PayPalEnabled)

	_, err = FromEnv(lookup(map[string]string{"PAYMENT_TIMEOUT": "soon", "SMTP_PORT": "x"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_TIMEOUT")
	assert.Contains(t, err.Error(), "SMTP_PORT")
}

func TestValidateRequiresSecretInProduction(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{"ENV": "prod"}))
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg.JWTSecret = "s3cret"
	require.NoError(t, cfg.Validate())

	cfg.ShippingFee = decimal.NewFromInt(-1)
	assert.ErrorContains(t, cfg.Validate(), "SHIPPING_FEE")
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVICE_NAME=from-file\nHTTP_ADDR=:9999\n"), 0o600))
	t.Setenv("HTTP_ADDR", ":7000")
	t.Cleanup(func() { _ = os.Unsetenv("SERVICE_NAME") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ServiceName)
	assert.Equal(t, ":7000", cfg.HTTPAddr)

	_, err = Load(filepath.Join(dir, "missing.env"))
	assert.NoError(t, err)
}
