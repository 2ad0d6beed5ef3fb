package session

import (
	"context"
	"time"

	"github.com/suleymanmyradov/ydb-go-driver/internal/transport"
	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

// Factory mints sessions against one specific endpoint's transport. The
// pool holds one Factory per known endpoint.
type Factory struct {
	Transport *transport.Transport
}

func NewFactory(tx *transport.Transport) *Factory {
	return &Factory{Transport: tx}
}

// Create issues CreateSession and constructs a Session bound to this
// factory's endpoint, wired to forward its events onto events.
func (f *Factory) Create(ctx context.Context, timeout time.Duration, events chan Event) (*Session, error) {
	var resp *ydbpb.CreateSessionResponse
	err := f.Transport.Call(ctx, "createSession", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewTableServiceClient(f.Transport.Conn).CreateSession(ctx, &ydbpb.CreateSessionRequest{})
		resp = r
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp.Op == nil || resp.Op.Status != ydbpb.StatusSuccess {
		status := ydbpb.StatusInternalError
		var issues []string
		if resp.Op != nil {
			status = resp.Op.Status
			issues = resp.Op.Issues
		}
		return nil, ydberr.NewYdbError(status, issues)
	}
	if resp.SessionId == "" {
		return nil, &ydberr.EmptyPayloadError{Op: "createSession"}
	}
	return New(resp.SessionId, f.Transport.Endpoint, f.Transport, events), nil
}
