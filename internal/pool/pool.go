// Package pool implements the bounded session pool: acquire/release with a
// FIFO waiter queue and timeout, prepopulation, a keepalive scheduler, and
// broken-session eviction, per §4.6.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"

	"github.com/suleymanmyradov/ydb-go-driver/internal/metrics"
	"github.com/suleymanmyradov/ydb-go-driver/internal/session"
	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

const DefaultKeepAlivePeriod = 5 * time.Minute

// SessionCreator mints a new session against whatever endpoint the driver
// currently considers best. The pool borrows this from the driver instead
// of owning endpoint selection itself (§9 — no cyclic ownership).
type SessionCreator interface {
	CreateSession(ctx context.Context, events chan session.Event) (*session.Session, error)
}

// Config configures the pool's limits and background cadences.
type Config struct {
	MinLimit         int
	MaxLimit         int
	KeepAlivePeriod  time.Duration
	CreateTimeout    time.Duration
	KeepAliveTimeout time.Duration
	DeleteTimeout    time.Duration
	Metrics          *metrics.Collectors
}

type waiter struct {
	resultCh chan *session.Session
	errCh    chan error
	done     bool
}

// Pool is the bounded session pool described by §4.6's data model and
// acquisition algorithm.
type Pool struct {
	creator SessionCreator
	cfg     Config

	mu                   sync.Mutex
	sessions             map[string]*session.Session
	waiters              []*waiter
	newSessionsRequested int
	sessionsBeingDeleted int
	destroyed            bool

	events chan session.Event

	keepAliveCancel context.CancelFunc
	keepAliveDone   chan struct{}
}

func New(creator SessionCreator, cfg Config) *Pool {
	if cfg.MinLimit <= 0 {
		cfg.MinLimit = 5
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 20
	}
	if cfg.KeepAlivePeriod <= 0 {
		cfg.KeepAlivePeriod = DefaultKeepAlivePeriod
	}
	if cfg.CreateTimeout <= 0 {
		cfg.CreateTimeout = 10 * time.Second
	}
	if cfg.KeepAliveTimeout <= 0 {
		cfg.KeepAliveTimeout = 5 * time.Second
	}
	if cfg.DeleteTimeout <= 0 {
		cfg.DeleteTimeout = 5 * time.Second
	}

	p := &Pool{
		creator:  creator,
		cfg:      cfg,
		sessions: make(map[string]*session.Session),
		events:   make(chan session.Event, 256),
	}

	threading.GoSafe(p.eventLoop)
	p.prepopulate()
	p.startKeepAlive()
	return p
}

func (p *Pool) prepopulate() {
	for i := 0; i < p.cfg.MinLimit; i++ {
		threading.GoSafe(func() {
			ctx, cancel := context.WithTimeout(context.Background(), p.cfg.CreateTimeout)
			defer cancel()
			if _, err := p.createSessionLocked(ctx); err != nil {
				logx.Errorf("pool: prepopulation create failed (non-fatal): %v", err)
			}
		})
	}
}

func (p *Pool) startKeepAlive() {
	ctx, cancel := context.WithCancel(context.Background())
	p.keepAliveCancel = cancel
	p.keepAliveDone = make(chan struct{})

	threading.GoSafe(func() {
		defer close(p.keepAliveDone)
		ticker := time.NewTicker(p.cfg.KeepAlivePeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.keepAliveAll(ctx)
			case <-ctx.Done():
				return
			}
		}
	})
}

func (p *Pool) keepAliveAll(ctx context.Context) {
	p.mu.Lock()
	snapshot := make([]*session.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		snapshot = append(snapshot, s)
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range snapshot {
		s := s
		wg.Add(1)
		threading.GoSafe(func() {
			defer wg.Done()
			if err := s.KeepAlive(ctx, p.cfg.KeepAliveTimeout); err != nil {
				logx.Errorf("pool: keepAlive failed for session %s: %v", s.ID, err)
			}
		})
	}
	wg.Wait()
}

// eventLoop is the pool's single subscriber to every session's event
// channel: SESSION_RELEASE hands the session to the head waiter,
// SESSION_BROKEN starts asynchronous eviction.
func (p *Pool) eventLoop() {
	for ev := range p.events {
		switch ev.Kind {
		case session.EventRelease:
			p.handleRelease(ev.Session)
		case session.EventBroken:
			p.handleBroken(ev.Session)
		}
	}
}

func (p *Pool) handleRelease(s *session.Session) {
	p.mu.Lock()
	w := p.popWaiter()
	p.mu.Unlock()

	if w == nil {
		return
	}
	if err := s.Acquire(); err != nil {
		// Lost the race (e.g. session went Broken between release and
		// hand-off) — put the waiter back and let the next release or
		// creation satisfy it.
		p.mu.Lock()
		p.waiters = append([]*waiter{w}, p.waiters...)
		p.mu.Unlock()
		return
	}
	p.resolveWaiter(w, s, nil)
}

func (p *Pool) popWaiter() *waiter {
	for len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		if !w.done {
			return w
		}
	}
	return nil
}

func (p *Pool) resolveWaiter(w *waiter, s *session.Session, err error) {
	w.done = true
	if err != nil {
		w.errCh <- err
		return
	}
	w.resultCh <- s
}

func (p *Pool) handleBroken(s *session.Session) {
	p.mu.Lock()
	if _, ok := p.sessions[s.ID]; !ok {
		p.mu.Unlock()
		return
	}
	p.sessionsBeingDeleted++
	p.mu.Unlock()

	threading.GoSafe(func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.DeleteTimeout)
		defer cancel()
		if err := s.Delete(ctx, p.cfg.DeleteTimeout); err != nil {
			logx.Errorf("pool: delete of broken session %s failed: %v", s.ID, err)
		}
		p.mu.Lock()
		delete(p.sessions, s.ID)
		p.sessionsBeingDeleted--
		p.mu.Unlock()
		p.reportMetrics()
	})
}

// Acquire implements the three-step algorithm in §4.6: scan for Free,
// else create if under the limit, else enqueue a waiter bounded by timeout.
func (p *Pool) Acquire(ctx context.Context, timeout time.Duration) (*session.Session, error) {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return nil, errPoolDestroyed
	}

	if s := p.scanFreeLocked(); s != nil {
		p.mu.Unlock()
		p.reportMetrics()
		return s, nil
	}

	if p.capacityAvailableLocked() {
		p.newSessionsRequested++
		p.mu.Unlock()

		s, err := p.createSessionWithTimeout(ctx)

		p.mu.Lock()
		p.newSessionsRequested--
		p.mu.Unlock()

		if err != nil {
			return nil, err
		}
		if err := s.Acquire(); err != nil {
			return nil, err
		}
		p.reportMetrics()
		return s, nil
	}

	w := &waiter{resultCh: make(chan *session.Session, 1), errCh: make(chan error, 1)}
	p.waiters = append(p.waiters, w)
	p.mu.Unlock()
	p.reportMetrics()

	return p.awaitWaiter(ctx, w, timeout)
}

func (p *Pool) awaitWaiter(ctx context.Context, w *waiter, timeout time.Duration) (*session.Session, error) {
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case s := <-w.resultCh:
		return s, nil
	case err := <-w.errCh:
		return nil, err
	case <-timeoutCh:
		p.mu.Lock()
		w.done = true
		p.mu.Unlock()
		return nil, fmt.Errorf("No session became available within timeout of %d ms: %w", timeout.Milliseconds(), &ydberr.TimeoutExpired{
			Op:      "sessionPool.acquire",
			Timeout: fmt.Sprintf("%dms", timeout.Milliseconds()),
		})
	case <-ctx.Done():
		p.mu.Lock()
		w.done = true
		p.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (p *Pool) scanFreeLocked() *session.Session {
	for _, s := range p.sessions {
		if s.State() == session.Free {
			if err := s.Acquire(); err == nil {
				return s
			}
		}
	}
	return nil
}

// capacityAvailableLocked implements the pool invariant from §3: a new
// session may be requested only while
// |sessions| + newSessionsRequested − sessionsBeingDeleted < maxLimit
// holds for the state *before* this request is counted, so that ≤ maxLimit
// still holds once it is.
func (p *Pool) capacityAvailableLocked() bool {
	inFlight := len(p.sessions) + p.newSessionsRequested - p.sessionsBeingDeleted
	return inFlight < p.cfg.MaxLimit
}

func (p *Pool) createSessionWithTimeout(ctx context.Context) (*session.Session, error) {
	createCtx := ctx
	if p.cfg.CreateTimeout > 0 {
		var cancel context.CancelFunc
		createCtx, cancel = context.WithTimeout(ctx, p.cfg.CreateTimeout)
		defer cancel()
	}
	return p.createSessionLocked(createCtx)
}

func (p *Pool) createSessionLocked(ctx context.Context) (*session.Session, error) {
	s, err := p.creator.CreateSession(ctx, p.events)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.sessions[s.ID] = s
	p.mu.Unlock()
	p.reportMetrics()
	return s, nil
}

// WithSession acquires a session, runs fn, releases on success, and deletes
// the session on failure (to avoid leaking a potentially-broken session),
// rethrowing fn's error. It never retries — see the Open Question in §9:
// retrying is the caller's responsibility via the retry engine.
func (p *Pool) WithSession(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, s *session.Session) error) error {
	s, err := p.Acquire(ctx, timeout)
	if err != nil {
		return err
	}

	if err := fn(ctx, s); err != nil {
		threading.GoSafe(func() {
			delCtx, cancel := context.WithTimeout(context.Background(), p.cfg.DeleteTimeout)
			defer cancel()
			if delErr := s.Delete(delCtx, p.cfg.DeleteTimeout); delErr != nil {
				logx.Errorf("pool: delete of failed-callback session %s failed: %v", s.ID, delErr)
			}
			p.mu.Lock()
			delete(p.sessions, s.ID)
			p.mu.Unlock()
			p.reportMetrics()
		})
		return err
	}

	s.Release()
	return nil
}

func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

func (p *Pool) reportMetrics() {
	if p.cfg.Metrics == nil {
		return
	}
	p.mu.Lock()
	size := len(p.sessions)
	waiters := len(p.waiters)
	p.mu.Unlock()
	p.cfg.Metrics.SetPoolSize(size)
	p.cfg.Metrics.SetWaiterQueueDepth(waiters)
}

// Destroy cancels the keepalive timer and awaits deletion of every current
// session. After Destroy, all operations fail.
func (p *Pool) Destroy(ctx context.Context) {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	sessions := make([]*session.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	for _, w := range p.waiters {
		if !w.done {
			w.done = true
			w.errCh <- errPoolDestroyed
		}
	}
	p.waiters = nil
	p.mu.Unlock()

	if p.keepAliveCancel != nil {
		p.keepAliveCancel()
		<-p.keepAliveDone
	}

	var wg sync.WaitGroup
	for _, s := range sessions {
		s := s
		wg.Add(1)
		threading.GoSafe(func() {
			defer wg.Done()
			if err := s.Delete(ctx, p.cfg.DeleteTimeout); err != nil {
				logx.Errorf("pool: destroy delete of session %s failed: %v", s.ID, err)
			}
		})
	}
	wg.Wait()

	p.mu.Lock()
	p.sessions = make(map[string]*session.Session)
	p.mu.Unlock()
	close(p.events)
}
