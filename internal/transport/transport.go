// Package transport wraps a generated gRPC stub with the two concerns every
// outbound call needs: auth metadata attachment and bounded timeouts, and
// reports transport-level failures back to whoever tracks endpoint health
// (the discovery service's pessimizer) without depending on it directly.
package transport

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/suleymanmyradov/ydb-go-driver/internal/telemetry"
	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

// Credentials is the capability the auth pipeline exposes to transport:
// produce the metadata pairs to attach to the next unary call.
type Credentials interface {
	GetAuthMetadata(ctx context.Context) (map[string]string, error)
}

// Pessimizer receives a notification whenever a call against an endpoint
// fails at the transport level. Discovery implements this; transport never
// imports discovery to avoid a cycle.
type Pessimizer interface {
	Pessimize(endpoint string)
}

// Transport binds a gRPC client connection to one endpoint and the
// credentials used to authenticate every call issued over it.
type Transport struct {
	Endpoint    string
	Conn        grpc.ClientConnInterface
	Credentials Credentials
	Pessimizer  Pessimizer
	Database    string
	Tracer      oteltrace.Tracer
}

// New builds a Transport. pessimizer may be nil (tests exercising transport
// in isolation need not track endpoint health).
func New(endpoint, database string, conn grpc.ClientConnInterface, creds Credentials, pessimizer Pessimizer) *Transport {
	return &Transport{
		Endpoint:    endpoint,
		Conn:        conn,
		Credentials: creds,
		Pessimizer:  pessimizer,
		Database:    database,
		Tracer:      telemetry.Tracer(nil),
	}
}

// AuthContext returns a context carrying the required x-ydb-auth-ticket and
// x-ydb-database metadata headers, per the wire protocol's per-call headers.
func (t *Transport) AuthContext(ctx context.Context) (context.Context, error) {
	md, err := t.Credentials.GetAuthMetadata(ctx)
	if err != nil {
		return nil, err
	}
	return metadata.NewOutgoingContext(ctx, metadata.New(md)), nil
}

// Call runs fn — a single unary RPC closed over the generated stub — under
// timeout, with auth metadata attached. Any transport-level failure
// (connection-level gRPC codes, or the timeout itself) is reported to the
// pessimizer and returned as a TransportError/TimeoutExpired.
func (t *Transport) Call(ctx context.Context, opName string, timeout time.Duration, fn func(ctx context.Context) error) error {
	requestID := uuid.NewString()
	spanCtx, finish := telemetry.StartRPCSpan(ctx, t.Tracer, opName, t.Endpoint, attribute.String("ydb.request_id", requestID))

	authed, err := t.AuthContext(spanCtx)
	if err != nil {
		finish(err)
		return err
	}
	err = t.WithTimeout(authed, opName, timeout, fn)
	finish(err)
	if err != nil {
		logx.WithContext(ctx).Errorf("transport: %s (request %s) failed: %v", opName, requestID, err)
	}
	return err
}

// WithTimeout races fn against a timer; on timeout it reports
// TimeoutExpired and lets the underlying call be cancelled best-effort via
// ctx cancellation. It is transport's timing primitive; Call runs every
// stub invocation through it.
func (t *Transport) WithTimeout(ctx context.Context, opName string, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return t.observe(opName, fn(ctx))
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(callCtx)
	}()

	select {
	case err := <-done:
		return t.observe(opName, err)
	case <-callCtx.Done():
		t.reportFailure()
		return &ydberr.TimeoutExpired{Op: opName, Timeout: timeout.String()}
	}
}

func (t *Transport) observe(opName string, err error) error {
	if err == nil {
		return nil
	}
	if isTransportLevel(err) {
		t.reportFailure()
		return &ydberr.TransportError{Endpoint: t.Endpoint, Cause: err}
	}
	return err
}

func (t *Transport) reportFailure() {
	if t.Pessimizer != nil {
		t.Pessimizer.Pessimize(t.Endpoint)
	}
}

// isTransportLevel reports whether err originates below the application
// layer: connection failures and the gRPC codes that indicate the node or
// network, not the query, is at fault.
func isTransportLevel(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		// Not a gRPC status at all — e.g. a dial error. Treat as transport.
		return true
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}
