// Package metrics exposes the driver's internal state as Prometheus
// collectors: pool size, waiter queue depth, retry counts, and discovery
// refresh counts. Registration follows the same MustRegister-at-construction
// style the platform's RPC server stats use.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors bundles the gauges/counters one Driver instance owns. A nil
// *Collectors is valid everywhere it's accepted — callers that don't want
// metrics simply don't construct one.
type Collectors struct {
	poolSize         prometheus.Gauge
	waiterQueueDepth prometheus.Gauge
	retriesTotal     *prometheus.CounterVec
	discoveryRefresh *prometheus.CounterVec
}

// New builds and registers a fresh set of collectors against reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests, multiple
// drivers in one process) or prometheus.DefaultRegisterer for the global one.
func New(reg prometheus.Registerer, namespace string) *Collectors {
	c := &Collectors{
		poolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session_pool",
			Name:      "size",
			Help:      "Current number of sessions held by the pool.",
		}),
		waiterQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session_pool",
			Name:      "waiters",
			Help:      "Current number of acquirers parked waiting for a free session.",
		}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retry_engine",
			Name:      "attempts_total",
			Help:      "Retry attempts by classification.",
		}, []string{"class"}),
		discoveryRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "refresh_total",
			Help:      "Discovery refresh attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(c.poolSize, c.waiterQueueDepth, c.retriesTotal, c.discoveryRefresh)
	return c
}

func (c *Collectors) SetPoolSize(n int) {
	if c == nil {
		return
	}
	c.poolSize.Set(float64(n))
}

func (c *Collectors) SetWaiterQueueDepth(n int) {
	if c == nil {
		return
	}
	c.waiterQueueDepth.Set(float64(n))
}

func (c *Collectors) ObserveRetry(class string) {
	if c == nil {
		return
	}
	c.retriesTotal.WithLabelValues(class).Inc()
}

func (c *Collectors) ObserveDiscoveryRefresh(outcome string) {
	if c == nil {
		return
	}
	c.discoveryRefresh.WithLabelValues(outcome).Inc()
}
