// Package ydb is the public API surface of the driver: Driver construction,
// table/scheme clients, the retry engine entry point, and the table
// description builders. Everything engineering-heavy lives in internal/.
package ydb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	oteltrace "go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/suleymanmyradov/ydb-go-driver/internal/auth"
	"github.com/suleymanmyradov/ydb-go-driver/internal/discovery"
	"github.com/suleymanmyradov/ydb-go-driver/internal/metrics"
	"github.com/suleymanmyradov/ydb-go-driver/internal/retryengine"
	"github.com/suleymanmyradov/ydb-go-driver/internal/session"
	"github.com/suleymanmyradov/ydb-go-driver/internal/telemetry"
	"github.com/suleymanmyradov/ydb-go-driver/internal/transport"
	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
)

// Credentials is the public name for the capability every auth variant
// implements; re-exported so callers never import internal/auth directly.
type Credentials = auth.Credentials

// Driver mediates between user code and the cluster: it owns discovery,
// per-endpoint transports, and the table/scheme clients. Per §9, ownership
// is a tree — Driver owns Discovery and the clients; it never holds a
// back-pointer from anything it creates.
type Driver struct {
	entryPoint string
	database   string
	creds      Credentials
	opts       options

	discoveryClient ydbpb.DiscoveryServiceClient
	discoverySvc    *discovery.Service

	mu        sync.Mutex
	transports map[string]*transport.Transport // endpoint key -> transport
	conns      map[string]*grpc.ClientConn

	metrics *metrics.Collectors
	tracer  oteltrace.Tracer

	table  *TableClient
	scheme *SchemeClient

	destroyed bool
}

// New constructs a Driver against entryPoint (the initial discovery
// endpoint), database (the database path attached to every call), and a
// credentials variant. It does not block on discovery completing — call
// Ready to wait for that.
func New(entryPoint, database string, creds Credentials, opts ...Option) (*Driver, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	conn, err := grpc.NewClient(entryPoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("ydb: dial entry point %s: %w", entryPoint, err)
	}

	d := &Driver{
		entryPoint: entryPoint,
		database:   database,
		creds:      creds,
		opts:       o,
		transports: make(map[string]*transport.Transport),
		conns:      map[string]*grpc.ClientConn{entryPoint: conn},
	}

	if o.metricsRegisterer != nil {
		d.metrics = metrics.New(o.metricsRegisterer, o.metricsNamespace)
		o.tablePool.Metrics = d.metrics
		o.schemePool.Metrics = d.metrics
	}
	d.tracer = telemetry.Tracer(o.tracerProvider)

	d.discoveryClient = ydbpb.NewDiscoveryServiceClient(conn)
	d.discoverySvc = discovery.New(d.discoveryClient, discovery.Config{
		Database:         database,
		Period:           o.discoveryPeriod,
		PessimizationTTL: o.pessimizationTTL,
		Listener:         d.onDiscoveryEvent,
	})
	d.discoverySvc.Start(context.Background())

	d.table = newTableClient(d, o.tablePool)
	d.scheme = newSchemeClient(d, o.schemePool)

	return d, nil
}

func (d *Driver) onDiscoveryEvent(ev discovery.Event) {
	switch ev.Kind {
	case discovery.EventAdded:
		logx.Infof("ydb: endpoint added %s", ev.Endpoint.Key())
	case discovery.EventRemoved:
		d.mu.Lock()
		delete(d.transports, ev.Endpoint.Key())
		if conn, ok := d.conns[ev.Endpoint.Key()]; ok {
			_ = conn.Close()
			delete(d.conns, ev.Endpoint.Key())
		}
		d.mu.Unlock()
		logx.Infof("ydb: endpoint removed %s", ev.Endpoint.Key())
	}
}

// Ready resolves true once the first successful discovery refresh
// completes, false if timeout elapses first.
func (d *Driver) Ready(timeout time.Duration) bool {
	return d.discoverySvc.Ready(context.Background(), timeout)
}

// GetEndpoint returns the least-loaded non-pessimized endpoint known to
// discovery.
func (d *Driver) GetEndpoint(ctx context.Context) (discovery.Endpoint, error) {
	return d.discoverySvc.GetEndpoint(ctx)
}

// TableClient returns the driver's table client.
func (d *Driver) TableClient() *TableClient { return d.table }

// SchemeClient returns the driver's scheme client.
func (d *Driver) SchemeClient() *SchemeClient { return d.scheme }

// transportFor returns (creating if necessary) the Transport bound to ep,
// dialing a fresh gRPC connection the first time ep is seen.
func (d *Driver) transportFor(ep discovery.Endpoint) (*transport.Transport, error) {
	key := ep.Key()

	d.mu.Lock()
	if tx, ok := d.transports[key]; ok {
		d.mu.Unlock()
		return tx, nil
	}
	d.mu.Unlock()

	addr := fmt.Sprintf("%s:%d", ep.Host, ep.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("ydb: dial endpoint %s: %w", addr, err)
	}

	tx := transport.New(key, d.database, conn, d.creds, d.discoverySvc)
	tx.Tracer = d.tracer

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.transports[key]; ok {
		_ = conn.Close()
		return existing, nil
	}
	d.transports[key] = tx
	d.conns[key] = conn
	return tx, nil
}

// driverSessionCreator adapts Driver to pool.SessionCreator: pick the best
// endpoint, get or dial its transport, mint a session through its factory.
type driverSessionCreator struct {
	d             *Driver
	createTimeout time.Duration
}

// CreateSession is retryable and pessimizable per §4.4: each attempt
// re-picks the best endpoint (so a failing one is naturally routed around
// once pessimized) and mints a session against it through retryengine's
// classification/backoff policy.
func (c *driverSessionCreator) CreateSession(ctx context.Context, events chan session.Event) (*session.Session, error) {
	var created *session.Session
	err := retryengine.WithRetries(ctx, func(ctx context.Context) error {
		ep, err := c.d.discoverySvc.GetEndpoint(ctx)
		if err != nil {
			return err
		}
		tx, err := c.d.transportFor(ep)
		if err != nil {
			return err
		}
		s, err := session.NewFactory(tx).Create(ctx, c.createTimeout, events)
		if err != nil {
			return err
		}
		created = s
		return nil
	}, retryengine.DefaultParameters(), nil)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Destroy tears down both clients' pools and discovery, then closes every
// dialed connection. Idempotent.
func (d *Driver) Destroy(ctx context.Context) {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	conns := make([]*grpc.ClientConn, 0, len(d.conns))
	for _, c := range d.conns {
		conns = append(conns, c)
	}
	d.mu.Unlock()

	d.table.destroy(ctx)
	d.scheme.destroy(ctx)
	d.discoverySvc.Destroy()

	for _, c := range conns {
		_ = c.Close()
	}
}

// Metrics exposes the driver's Prometheus collectors, or nil if metrics
// were not enabled via WithMetrics.
func (d *Driver) Metrics() *metrics.Collectors { return d.metrics }
