package ydb

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/suleymanmyradov/ydb-go-driver/internal/pool"
)

// options bundles every Driver construction knob defaulted by defaultOptions
// and overridden one-by-one via Option.
type options struct {
	discoveryPeriod  time.Duration
	pessimizationTTL time.Duration

	tablePool  pool.Config
	schemePool pool.Config

	metricsRegisterer prometheus.Registerer
	metricsNamespace  string

	tracerProvider oteltrace.TracerProvider
}

func defaultOptions() options {
	return options{
		discoveryPeriod:  60 * time.Second,
		pessimizationTTL: 60 * time.Second,
		tablePool: pool.Config{
			MinLimit:         5,
			MaxLimit:         20,
			KeepAlivePeriod:  5 * time.Minute,
			CreateTimeout:    10 * time.Second,
			KeepAliveTimeout: 5 * time.Second,
			DeleteTimeout:    5 * time.Second,
		},
		schemePool: pool.Config{
			MinLimit:         1,
			MaxLimit:         5,
			KeepAlivePeriod:  5 * time.Minute,
			CreateTimeout:    10 * time.Second,
			KeepAliveTimeout: 5 * time.Second,
			DeleteTimeout:    5 * time.Second,
		},
		metricsNamespace: "ydb_driver",
	}
}

// Option configures a Driver at construction time.
type Option func(*options)

// WithDiscoveryPeriod overrides how often the endpoint set is refreshed.
func WithDiscoveryPeriod(d time.Duration) Option {
	return func(o *options) { o.discoveryPeriod = d }
}

// WithPessimizationTTL overrides how long a failing endpoint is routed
// around before being reconsidered.
func WithPessimizationTTL(d time.Duration) Option {
	return func(o *options) { o.pessimizationTTL = d }
}

// WithTablePoolLimits overrides the table session pool's min/max bounds.
func WithTablePoolLimits(min, max int) Option {
	return func(o *options) {
		o.tablePool.MinLimit = min
		o.tablePool.MaxLimit = max
	}
}

// WithSchemePoolLimits overrides the scheme session pool's min/max bounds.
func WithSchemePoolLimits(min, max int) Option {
	return func(o *options) {
		o.schemePool.MinLimit = min
		o.schemePool.MaxLimit = max
	}
}

// WithKeepAlivePeriod overrides both pools' keepalive cadence.
func WithKeepAlivePeriod(d time.Duration) Option {
	return func(o *options) {
		o.tablePool.KeepAlivePeriod = d
		o.schemePool.KeepAlivePeriod = d
	}
}

// WithMetrics registers the driver's Prometheus collectors against reg
// under namespace. Omitting this option leaves metrics disabled (nil-safe
// no-ops throughout).
func WithMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(o *options) {
		o.metricsRegisterer = reg
		if namespace != "" {
			o.metricsNamespace = namespace
		}
	}
}

// WithTracerProvider overrides the OpenTelemetry TracerProvider every
// Transport instruments its calls against. Omitting this option falls back
// to the global provider (a no-op unless the process has configured one).
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}
