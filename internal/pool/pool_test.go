package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/suleymanmyradov/ydb-go-driver/internal/session"
	"github.com/suleymanmyradov/ydb-go-driver/internal/transport"
	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

type alwaysOKConn struct{}

func (alwaysOKConn) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	return nil
}

func (alwaysOKConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, nil
}

type noopCreds struct{}

func (noopCreds) GetAuthMetadata(ctx context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}

func fakeTransport() *transport.Transport {
	return transport.New("ep1", "/local", alwaysOKConn{}, noopCreds{}, nil)
}

type fakeCreator struct {
	mu      sync.Mutex
	created int32
	failN   int32 // fail the first failN creations
}

func (c *fakeCreator) CreateSession(ctx context.Context, events chan session.Event) (*session.Session, error) {
	n := atomic.AddInt32(&c.created, 1)
	if n <= c.failN {
		return nil, ydberr.NewYdbError(0, []string{"create failed"})
	}
	id := time.Now().Format("150405.000000000") + "-" + time.Duration(n).String()
	return session.New(id, "ep1", fakeTransport(), events), nil
}

func fastCfg(min, max int) Config {
	return Config{
		MinLimit:         min,
		MaxLimit:         max,
		KeepAlivePeriod:  time.Hour,
		CreateTimeout:    time.Second,
		KeepAliveTimeout: time.Second,
		DeleteTimeout:    time.Second,
	}
}

func TestPoolPrepopulatesUpToMinLimit(t *testing.T) {
	creator := &fakeCreator{}
	p := New(creator, fastCfg(3, 10))
	defer p.Destroy(context.Background())

	require.Eventually(t, func() bool { return p.Size() == 3 }, time.Second, time.Millisecond)
}

func TestAcquireReusesFreeSessionBeforeCreating(t *testing.T) {
	creator := &fakeCreator{}
	p := New(creator, fastCfg(1, 10))
	defer p.Destroy(context.Background())

	require.Eventually(t, func() bool { return p.Size() == 1 }, time.Second, time.Millisecond)

	s, err := p.Acquire(context.Background(), time.Second)
	require.NoError(t, err)
	s.Release()

	before := atomic.LoadInt32(&creator.created)
	s2, err := p.Acquire(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, before, atomic.LoadInt32(&creator.created), "acquiring a released session must not create a new one")
	_ = s2
}

func TestAcquireBlocksAtCapacityThenUnblocksOnRelease(t *testing.T) {
	creator := &fakeCreator{}
	p := New(creator, fastCfg(1, 1))
	defer p.Destroy(context.Background())

	require.Eventually(t, func() bool { return p.Size() == 1 }, time.Second, time.Millisecond)

	s1, err := p.Acquire(context.Background(), time.Second)
	require.NoError(t, err)

	resultCh := make(chan *session.Session, 1)
	go func() {
		s, err := p.Acquire(context.Background(), 2*time.Second)
		require.NoError(t, err)
		resultCh <- s
	}()

	time.Sleep(20 * time.Millisecond) // let the waiter enqueue
	s1.Release()

	select {
	case s := <-resultCh:
		assert.Equal(t, s1.ID, s.ID)
	case <-time.After(time.Second):
		t.Fatal("waiter was never satisfied after release")
	}
}

func TestAcquireTimesOutWhenNoSessionBecomesAvailable(t *testing.T) {
	creator := &fakeCreator{}
	p := New(creator, fastCfg(1, 1))
	defer p.Destroy(context.Background())

	require.Eventually(t, func() bool { return p.Size() == 1 }, time.Second, time.Millisecond)

	_, err := p.Acquire(context.Background(), time.Second)
	require.NoError(t, err)

	_, err = p.Acquire(context.Background(), 20*time.Millisecond)
	var timeoutErr *ydberr.TimeoutExpired
	require.ErrorAs(t, err, &timeoutErr)
}

func TestDestroyFailsSubsequentAcquire(t *testing.T) {
	creator := &fakeCreator{}
	p := New(creator, fastCfg(1, 5))
	require.Eventually(t, func() bool { return p.Size() == 1 }, time.Second, time.Millisecond)

	p.Destroy(context.Background())
	assert.Equal(t, 0, p.Size())

	_, err := p.Acquire(context.Background(), time.Second)
	assert.Error(t, err)
}

func TestWithSessionDeletesSessionOnCallbackFailure(t *testing.T) {
	creator := &fakeCreator{}
	p := New(creator, fastCfg(1, 5))
	defer p.Destroy(context.Background())
	require.Eventually(t, func() bool { return p.Size() == 1 }, time.Second, time.Millisecond)

	callbackErr := assertionError{"callback failed"}
	err := p.WithSession(context.Background(), time.Second, func(ctx context.Context, s *session.Session) error {
		return callbackErr
	})
	assert.Equal(t, callbackErr, err)

	require.Eventually(t, func() bool { return p.Size() == 0 }, time.Second, time.Millisecond)
}

type assertionError struct{ msg string }

func (e assertionError) Error() string { return e.msg }
