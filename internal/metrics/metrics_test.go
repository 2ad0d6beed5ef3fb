package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestSetPoolSizeAndWaiterQueueDepth(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "ydb_test")

	c.SetPoolSize(5)
	c.SetWaiterQueueDepth(2)

	assert.Equal(t, float64(5), gaugeValue(t, c.poolSize))
	assert.Equal(t, float64(2), gaugeValue(t, c.waiterQueueDepth))
}

func TestObserveRetryIncrementsByClass(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "ydb_test")

	c.ObserveRetry("retryable_fast")
	c.ObserveRetry("retryable_fast")
	c.ObserveRetry("fatal")

	assert.Equal(t, float64(2), counterValue(t, c.retriesTotal.WithLabelValues("retryable_fast")))
	assert.Equal(t, float64(1), counterValue(t, c.retriesTotal.WithLabelValues("fatal")))
}

func TestObserveDiscoveryRefresh(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "ydb_test")

	c.ObserveDiscoveryRefresh("success")
	assert.Equal(t, float64(1), counterValue(t, c.discoveryRefresh.WithLabelValues("success")))
}

func TestNilCollectorsAreNoOp(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() {
		c.SetPoolSize(1)
		c.SetWaiterQueueDepth(1)
		c.ObserveRetry("fatal")
		c.ObserveDiscoveryRefresh("error")
	})
}
