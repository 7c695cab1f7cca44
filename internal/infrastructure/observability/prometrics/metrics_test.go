package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterRegisteredOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("", "", reg)

	a := r.Counter("orders_total", "help", "outcome")
	b := r.Counter("orders_total", "help", "outcome")
	a.Add(1, observability.L("outcome", "success"))
	b.Bind(observability.L("outcome", "success")).Add(2)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, 3.0, families[0].GetMetric()[0].GetCounter().GetValue())
}

func TestStandardInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := Standard(New("", "", reg))

	counters[observability.MUsecaseRequests].Add(1,
		observability.L("use_case", "order.place"),
		observability.L("outcome", "success"),
	)
	histograms[observability.MUsecaseDuration].Observe(0.2, observability.L("use_case", "order.place"))

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "usecase_requests_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "usecase_duration_seconds"))
}
