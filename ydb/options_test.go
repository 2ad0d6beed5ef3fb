package ydb

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestDefaultOptionsMatchDocumentedDefaults(t *testing.T) {
	o := defaultOptions()
	assert.Equal(t, 60*time.Second, o.discoveryPeriod)
	assert.Equal(t, 60*time.Second, o.pessimizationTTL)
	assert.Equal(t, 5, o.tablePool.MinLimit)
	assert.Equal(t, 20, o.tablePool.MaxLimit)
	assert.Equal(t, 1, o.schemePool.MinLimit)
	assert.Equal(t, 5, o.schemePool.MaxLimit)
	assert.Nil(t, o.metricsRegisterer)
}

func TestWithTablePoolLimitsOverridesOnlyTablePool(t *testing.T) {
	o := defaultOptions()
	WithTablePoolLimits(2, 8)(&o)
	assert.Equal(t, 2, o.tablePool.MinLimit)
	assert.Equal(t, 8, o.tablePool.MaxLimit)
	assert.Equal(t, 1, o.schemePool.MinLimit, "scheme pool must be untouched")
}

func TestWithKeepAlivePeriodOverridesBothPools(t *testing.T) {
	o := defaultOptions()
	WithKeepAlivePeriod(90 * time.Second)(&o)
	assert.Equal(t, 90*time.Second, o.tablePool.KeepAlivePeriod)
	assert.Equal(t, 90*time.Second, o.schemePool.KeepAlivePeriod)
}

func TestWithMetricsKeepsDefaultNamespaceWhenEmptyStringGiven(t *testing.T) {
	o := defaultOptions()
	reg := prometheus.NewRegistry()
	WithMetrics(reg, "")(&o)
	assert.Equal(t, reg, o.metricsRegisterer)
	assert.Equal(t, "ydb_driver", o.metricsNamespace)

	WithMetrics(reg, "custom_ns")(&o)
	assert.Equal(t, "custom_ns", o.metricsNamespace)
}
