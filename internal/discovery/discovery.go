// Package discovery maintains the current endpoint set for a database
// cluster: a periodic refresh loop, diffing against the previous set to
// raise added/removed events, and a pessimization scheme that temporarily
// routes around endpoints that have recently failed.
package discovery

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"

	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

const (
	DefaultPeriod           = 60 * time.Second
	DefaultPessimizationTTL = 60 * time.Second
)

// EventKind distinguishes the two notifications Discovery raises.
type EventKind int

const (
	EventAdded EventKind = iota
	EventRemoved
)

type Event struct {
	Kind     EventKind
	Endpoint Endpoint
}

// Listener receives added/removed notifications. Discovery supports exactly
// one subscriber, installed at construction (the Driver), per §9.
type Listener func(Event)

// Config configures the discovery loop.
type Config struct {
	Database         string
	Period           time.Duration
	PessimizationTTL time.Duration
	Listener         Listener
}

// Service is the discovery control loop plus the endpoint table it
// maintains. It implements transport.Pessimizer so Transport can report
// failures without importing this package.
type Service struct {
	client ydbpb.DiscoveryServiceClient
	cfg    Config

	mu        sync.RWMutex
	endpoints map[string]Endpoint

	refreshMu sync.Mutex // serializes refreshes; a new one never starts while one is in flight

	readyOnce sync.Once
	readyCh   chan struct{}

	cancel context.CancelFunc
	done   chan struct{}

	destroyed bool
}

func New(client ydbpb.DiscoveryServiceClient, cfg Config) *Service {
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.PessimizationTTL <= 0 {
		cfg.PessimizationTTL = DefaultPessimizationTTL
	}
	return &Service{
		client:    client,
		cfg:       cfg,
		endpoints: make(map[string]Endpoint),
		readyCh:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start kicks off the first refresh and the periodic loop thereafter. It
// does not block on the first refresh completing — use Ready for that.
func (s *Service) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	threading.GoSafe(func() {
		defer close(s.done)
		s.refresh(runCtx)

		ticker := time.NewTicker(s.cfg.Period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.refresh(runCtx)
			case <-runCtx.Done():
				return
			}
		}
	})
}

// Ready resolves true once the first successful refresh completes, false if
// timeout elapses first.
func (s *Service) Ready(ctx context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case <-s.readyCh:
			return true
		case <-ctx.Done():
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.readyCh:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// GetEndpoint returns the least-loaded non-pessimized endpoint, breaking
// ties randomly. If every known endpoint is pessimized, it triggers an
// immediate refresh and retries the selection once against the refreshed
// table.
func (s *Service) GetEndpoint(ctx context.Context) (Endpoint, error) {
	s.mu.RLock()
	destroyed := s.destroyed
	s.mu.RUnlock()
	if destroyed {
		return Endpoint{}, &ydberr.TransportError{Endpoint: "discovery", Cause: errDestroyed}
	}

	if ep, ok := s.pickEndpoint(); ok {
		return ep, nil
	}

	s.refresh(ctx)

	if ep, ok := s.pickEndpoint(); ok {
		return ep, nil
	}
	return Endpoint{}, errNoEndpoints
}

func (s *Service) pickEndpoint() (Endpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var best []Endpoint
	var bestLoad float32
	for _, ep := range s.endpoints {
		if ep.IsPessimized(now) {
			continue
		}
		switch {
		case len(best) == 0 || ep.LoadFactor < bestLoad:
			best = []Endpoint{ep}
			bestLoad = ep.LoadFactor
		case ep.LoadFactor == bestLoad:
			best = append(best, ep)
		}
	}
	if len(best) == 0 {
		return Endpoint{}, false
	}
	return best[rand.Intn(len(best))], true
}

// Pessimize marks endpoint key as temporarily undesirable for routing. It
// implements transport.Pessimizer.
func (s *Service) Pessimize(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ep, ok := s.endpoints[key]
	if !ok {
		return
	}
	ep.PessimizedUntil = time.Now().Add(s.cfg.PessimizationTTL)
	s.endpoints[key] = ep
	logx.Errorf("discovery: pessimized endpoint %s until %s", key, ep.PessimizedUntil)
}

func (s *Service) refresh(ctx context.Context) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	resp, err := s.client.ListEndpoints(ctx, &ydbpb.ListEndpointsRequest{Database: s.cfg.Database})
	if err != nil {
		logx.WithContext(ctx).Errorf("discovery: refresh failed: %v", err)
		return
	}

	fresh := make(map[string]Endpoint, len(resp.Endpoints))
	for _, e := range resp.Endpoints {
		ep := Endpoint{Host: e.Address, Port: e.Port, Database: s.cfg.Database, LoadFactor: e.LoadFactor}
		fresh[ep.Key()] = ep
	}

	s.mu.Lock()
	prev := s.endpoints
	// Endpoints that survive the refresh keep their pessimization, so a
	// refresh does not make a failing endpoint eligible before its TTL ends.
	for key, ep := range fresh {
		if old, ok := prev[key]; ok {
			ep.PessimizedUntil = old.PessimizedUntil
			fresh[key] = ep
		}
	}
	s.endpoints = fresh
	s.mu.Unlock()

	s.emitDiff(prev, fresh)

	s.readyOnce.Do(func() { close(s.readyCh) })
}

func (s *Service) emitDiff(prev, fresh map[string]Endpoint) {
	if s.cfg.Listener == nil {
		return
	}
	for key, ep := range fresh {
		if _, ok := prev[key]; !ok {
			s.cfg.Listener(Event{Kind: EventAdded, Endpoint: ep})
		}
	}
	for key, ep := range prev {
		if _, ok := fresh[key]; !ok {
			s.cfg.Listener(Event{Kind: EventRemoved, Endpoint: ep})
		}
	}
}

// Destroy cancels the periodic refresh and any in-flight refresh;
// subsequent GetEndpoint calls fail.
func (s *Service) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}
