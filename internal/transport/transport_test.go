package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

type fakeConn struct{}

func (fakeConn) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	return nil
}

func (fakeConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("streaming not supported by this stand-in")
}

type fakeCreds struct {
	md  map[string]string
	err error
}

func (c fakeCreds) GetAuthMetadata(ctx context.Context) (map[string]string, error) {
	return c.md, c.err
}

type fakePessimizer struct {
	pessimized []string
}

func (p *fakePessimizer) Pessimize(endpoint string) { p.pessimized = append(p.pessimized, endpoint) }

func TestCallSucceeds(t *testing.T) {
	p := &fakePessimizer{}
	tr := New("ep1", "/local", fakeConn{}, fakeCreds{md: map[string]string{"x": "y"}}, p)

	called := false
	err := tr.Call(context.Background(), "op", time.Second, func(ctx context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.Empty(t, p.pessimized)
}

func TestCallWrapsTransportLevelFailureAndPessimizes(t *testing.T) {
	p := &fakePessimizer{}
	tr := New("ep1", "/local", fakeConn{}, fakeCreds{md: map[string]string{}}, p)

	err := tr.Call(context.Background(), "op", time.Second, func(ctx context.Context) error {
		return status.Error(codes.Unavailable, "node down")
	})

	var transportErr *ydberr.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "ep1", transportErr.Endpoint)
	assert.Equal(t, []string{"ep1"}, p.pessimized)
}

func TestCallPassesThroughApplicationError(t *testing.T) {
	p := &fakePessimizer{}
	tr := New("ep1", "/local", fakeConn{}, fakeCreds{md: map[string]string{}}, p)

	appErr := status.Error(codes.InvalidArgument, "bad request")
	err := tr.Call(context.Background(), "op", time.Second, func(ctx context.Context) error {
		return appErr
	})

	assert.Equal(t, appErr, err)
	assert.Empty(t, p.pessimized)
}

func TestCallTimesOutAndPessimizes(t *testing.T) {
	p := &fakePessimizer{}
	tr := New("ep1", "/local", fakeConn{}, fakeCreds{md: map[string]string{}}, p)

	err := tr.Call(context.Background(), "op", 5*time.Millisecond, func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	var timeoutErr *ydberr.TimeoutExpired
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, []string{"ep1"}, p.pessimized)
}

func TestCallPropagatesAuthFailureWithoutPessimizing(t *testing.T) {
	p := &fakePessimizer{}
	authErr := errors.New("no credentials available")
	tr := New("ep1", "/local", fakeConn{}, fakeCreds{err: authErr}, p)

	err := tr.Call(context.Background(), "op", time.Second, func(ctx context.Context) error {
		t.Fatal("fn should not run when auth fails")
		return nil
	})

	assert.Equal(t, authErr, err)
	assert.Empty(t, p.pessimized)
}
