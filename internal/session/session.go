// Package session implements the Session state machine and the RPCs it
// exposes: DDL, query prepare/execute, transaction control, keepalive, and
// deletion, per §4.5.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/suleymanmyradov/ydb-go-driver/internal/transport"
	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

// State is the session's lifecycle state. Broken and Deleted are checked
// orthogonally to Free/Acquired in the source design; here they're folded
// into one State for simplicity since Deleted is terminal and Broken only
// matters while not yet Deleted.
type State int

const (
	Free State = iota
	Acquired
	Broken
	Deleted
)

// EventKind distinguishes the two notifications a Session raises. Exactly
// one subscriber exists for each — the pool that owns this session.
type EventKind int

const (
	EventRelease EventKind = iota
	EventBroken
)

type Event struct {
	Kind    EventKind
	Session *Session
}

// AutoTX is the default transaction control: begin a serializable
// read-write transaction and commit at statement end.
var AutoTX = &ydbpb.TransactionControl{
	BeginSettings: &ydbpb.TransactionSettings{SerializableReadWrite: true},
	CommitTx:      true,
}

// ResultSet is the query result shape row decoding (out of scope) produces
// into. Columns/Rows here are the opaque collaborator's job to fill.
type ResultSet struct {
	Columns []ydbpb.ColumnMeta
	Rows    [][]any
}

// TableSchema is what DescribeTable returns.
type TableSchema struct {
	Columns    []ydbpb.ColumnMeta
	PrimaryKey []string
}

// Session is a stateful handle bound for life to the endpoint it was
// created on. It never holds a back-pointer to its pool; the pool
// subscribes to events at creation time instead (§9).
type Session struct {
	ID       string
	Endpoint string

	tx *transport.Transport

	mu    sync.Mutex
	state State

	events chan Event
}

// New wraps an already-minted server-side session id. Session factories
// (one per endpoint) are the only intended caller.
func New(id, endpoint string, tx *transport.Transport, events chan Event) *Session {
	return &Session{ID: id, Endpoint: endpoint, tx: tx, state: Free, events: events}
}

// Transport exposes the endpoint-bound transport this session was minted
// on, for collaborators (scheme operations) that need to issue calls
// against the same endpoint without going through a table-service method.
func (s *Session) Transport() *transport.Transport { return s.tx }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Acquire transitions Free -> Acquired. It is the pool's job to call this
// only once it has reserved the session for a single caller.
func (s *Session) Acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Free {
		return errNotFree
	}
	s.state = Acquired
	return nil
}

// Release transitions Acquired -> Free and notifies the pool so a waiting
// acquirer can be handed this session.
func (s *Session) Release() {
	s.mu.Lock()
	if s.state == Acquired {
		s.state = Free
	}
	s.mu.Unlock()
	s.emit(EventRelease)
}

func (s *Session) markBroken() {
	s.mu.Lock()
	already := s.state == Broken || s.state == Deleted
	if s.state != Deleted {
		s.state = Broken
	}
	s.mu.Unlock()
	if !already {
		s.emit(EventBroken)
	}
}

func (s *Session) emit(kind EventKind) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- Event{Kind: kind, Session: s}:
	default:
		// The pool's listener goroutine should always keep up; a full
		// buffer would mean it has stopped draining, which only happens
		// after Destroy. Dropping here is safer than blocking a caller.
	}
}

var errNotFree = errors.New("session: acquire called on a non-Free session")

// sessionErr converts a non-success operation envelope into the error
// taxonomy in ydberr: a SchemeError for StatusSchemeError (path is the
// path the caller was operating on, or "" when the op has none), a
// session-broken status marks s Broken, and everything else is a plain
// YdbError.
func sessionErr(op string, resp *ydbpb.Operation, s *Session, path string) error {
	if resp == nil {
		return &ydberr.EmptyPayloadError{Op: op}
	}
	if resp.Status == ydbpb.StatusSuccess {
		return nil
	}
	if resp.Status == ydbpb.StatusBadSession || resp.Status == ydbpb.StatusSessionExpired {
		s.markBroken()
	}
	if resp.Status == ydbpb.StatusSchemeError {
		return ydberr.NewSchemeError(path, resp.Issues)
	}
	return ydberr.NewYdbError(resp.Status, resp.Issues)
}

// KeepAlive pings the server-side session. Failures classified as
// session-broken mark this Session Broken, triggering pool eviction.
func (s *Session) KeepAlive(ctx context.Context, timeout time.Duration) error {
	var resp *ydbpb.KeepAliveResponse
	err := s.tx.Call(ctx, "keepAlive", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewTableServiceClient(s.tx.Conn).KeepAlive(ctx, &ydbpb.KeepAliveRequest{SessionId: s.ID})
		resp = r
		return err
	})
	if err != nil {
		return err
	}
	return sessionErr("keepAlive", resp.Op, s, "")
}

// CreateTable issues CreateTable with path composed as database/path.
func (s *Session) CreateTable(ctx context.Context, database, path string, desc *ydbpb.TableDescriptionPB, timeout time.Duration) error {
	full := database + "/" + path
	var resp *ydbpb.CreateTableResponse
	err := s.tx.Call(ctx, "createTable", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewTableServiceClient(s.tx.Conn).CreateTable(ctx, &ydbpb.CreateTableRequest{Path: full, Description: desc})
		resp = r
		return err
	})
	if err != nil {
		return err
	}
	return sessionErr("createTable", resp.Op, s, full)
}

// DropTable tolerates a SchemeError status as success-equivalent, so
// dropping an already-absent table is idempotent for the caller.
func (s *Session) DropTable(ctx context.Context, database, path string, timeout time.Duration) error {
	full := database + "/" + path
	var resp *ydbpb.DropTableResponse
	err := s.tx.Call(ctx, "dropTable", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewTableServiceClient(s.tx.Conn).DropTable(ctx, &ydbpb.DropTableRequest{Path: full})
		resp = r
		return err
	})
	if err != nil {
		return err
	}
	if resp.Op != nil && resp.Op.Status == ydbpb.StatusSchemeError {
		return nil
	}
	return sessionErr("dropTable", resp.Op, s, full)
}

func (s *Session) DescribeTable(ctx context.Context, database, path string, timeout time.Duration) (*TableSchema, error) {
	full := database + "/" + path
	var resp *ydbpb.DescribeTableResponse
	err := s.tx.Call(ctx, "describeTable", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewTableServiceClient(s.tx.Conn).DescribeTable(ctx, &ydbpb.DescribeTableRequest{Path: full})
		resp = r
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := sessionErr("describeTable", resp.Op, s, full); err != nil {
		return nil, err
	}
	if resp.Description == nil {
		return nil, &ydberr.EmptyPayloadError{Op: "describeTable"}
	}
	cols := make([]ydbpb.ColumnMeta, 0, len(resp.Description.Columns))
	for _, c := range resp.Description.Columns {
		cols = append(cols, *c)
	}
	return &TableSchema{Columns: cols, PrimaryKey: resp.Description.PrimaryKey}, nil
}

// BeginTransaction fails if the server returns an empty txMeta, per §4.5.
func (s *Session) BeginTransaction(ctx context.Context, settings *ydbpb.TransactionSettings, timeout time.Duration) (string, error) {
	var resp *ydbpb.BeginTransactionResponse
	err := s.tx.Call(ctx, "beginTransaction", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewTableServiceClient(s.tx.Conn).BeginTransaction(ctx, &ydbpb.BeginTransactionRequest{SessionId: s.ID, TxSettings: settings})
		resp = r
		return err
	})
	if err != nil {
		return "", err
	}
	if err := sessionErr("beginTransaction", resp.Op, s, ""); err != nil {
		return "", err
	}
	if resp.TxMeta == nil || resp.TxMeta.Id == "" {
		return "", &ydberr.EmptyPayloadError{Op: "beginTransaction"}
	}
	return resp.TxMeta.Id, nil
}

func (s *Session) CommitTransaction(ctx context.Context, txID string, timeout time.Duration) error {
	var resp *ydbpb.CommitTransactionResponse
	err := s.tx.Call(ctx, "commitTransaction", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewTableServiceClient(s.tx.Conn).CommitTransaction(ctx, &ydbpb.CommitTransactionRequest{SessionId: s.ID, TxId: txID})
		resp = r
		return err
	})
	if err != nil {
		return err
	}
	return sessionErr("commitTransaction", resp.Op, s, "")
}

func (s *Session) RollbackTransaction(ctx context.Context, txID string, timeout time.Duration) error {
	var resp *ydbpb.RollbackTransactionResponse
	err := s.tx.Call(ctx, "rollbackTransaction", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewTableServiceClient(s.tx.Conn).RollbackTransaction(ctx, &ydbpb.RollbackTransactionRequest{SessionId: s.ID, TxId: txID})
		resp = r
		return err
	})
	if err != nil {
		return err
	}
	return sessionErr("rollbackTransaction", resp.Op, s, "")
}

func (s *Session) PrepareQuery(ctx context.Context, yql string, timeout time.Duration) (string, error) {
	var resp *ydbpb.PrepareDataQueryResponse
	err := s.tx.Call(ctx, "prepareQuery", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewTableServiceClient(s.tx.Conn).PrepareDataQuery(ctx, &ydbpb.PrepareDataQueryRequest{SessionId: s.ID, YqlText: yql})
		resp = r
		return err
	})
	if err != nil {
		return "", err
	}
	if err := sessionErr("prepareQuery", resp.Op, s, ""); err != nil {
		return "", err
	}
	return resp.QueryId, nil
}

// ExecuteQuery runs a prepared-handle or raw YQL query. txControl defaults
// to AutoTX when nil. Unlike the other operations, executeQuery is not
// self-retried here — the caller composes ydb.WithRetries around it (§4.7).
func (s *Session) ExecuteQuery(ctx context.Context, query *ydbpb.Query, params []*ydbpb.QueryParam, txControl *ydbpb.TransactionControl, timeout time.Duration) (*ResultSet, error) {
	if txControl == nil {
		txControl = AutoTX
	}
	var resp *ydbpb.ExecuteDataQueryResponse
	err := s.tx.Call(ctx, "executeQuery", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewTableServiceClient(s.tx.Conn).ExecuteDataQuery(ctx, &ydbpb.ExecuteDataQueryRequest{
			SessionId: s.ID,
			Query:     query,
			Params:    params,
			TxControl: txControl,
		})
		resp = r
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := sessionErr("executeQuery", resp.Op, s, ""); err != nil {
		return nil, err
	}
	if len(resp.ResultSets) == 0 {
		return &ResultSet{}, nil
	}
	rs := resp.ResultSets[0]
	cols := make([]ydbpb.ColumnMeta, 0, len(rs.Columns))
	for _, c := range rs.Columns {
		cols = append(cols, *c)
	}
	return &ResultSet{Columns: cols, Rows: rs.Rows}, nil
}

// Delete is idempotent: a no-op once already Deleted, otherwise issues
// DeleteSession and marks the session terminal.
func (s *Session) Delete(ctx context.Context, timeout time.Duration) error {
	s.mu.Lock()
	if s.state == Deleted {
		s.mu.Unlock()
		return nil
	}
	s.state = Deleted
	s.mu.Unlock()

	// Deliberately not checking resp.Op.Status: once the client has
	// decided to delete, the server either agrees or the session is
	// already gone from its perspective — either way it's gone from ours.
	return s.tx.Call(ctx, "deleteSession", timeout, func(ctx context.Context) error {
		_, err := ydbpb.NewTableServiceClient(s.tx.Conn).DeleteSession(ctx, &ydbpb.DeleteSessionRequest{SessionId: s.ID})
		return err
	})
}
