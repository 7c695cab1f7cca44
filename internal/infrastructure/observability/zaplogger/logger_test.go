package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerCarriesFixedAndScopedFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core), observability.F("service", "checkout"))

	l.With(observability.F("order_id", "o-1")).Info("use_case_done",
		observability.F("error", errors.New("boom")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "use_case_done", entries[0].Message)
	assert.Equal(t, "checkout", ctx["service"])
	assert.Equal(t, "o-1", ctx["order_id"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestNilBaseFallsBackToNop(t *testing.T) {
	l := New(nil)
	assert.NotPanics(t, func() { l.Warn("ignored") })
}
