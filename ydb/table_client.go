package ydb

import (
	"context"
	"time"

	"github.com/suleymanmyradov/ydb-go-driver/internal/pool"
	"github.com/suleymanmyradov/ydb-go-driver/internal/session"
	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
)

// TableClient is the entry point for session-bound table operations:
// DDL, transaction control, and query execution, all mediated through a
// bounded session pool.
type TableClient struct {
	driver *Driver
	pool   *pool.Pool
}

func newTableClient(d *Driver, cfg pool.Config) *TableClient {
	creator := &driverSessionCreator{d: d, createTimeout: cfg.CreateTimeout}
	return &TableClient{driver: d, pool: pool.New(creator, cfg)}
}

// WithSession acquires a session from the pool, runs fn, and releases it on
// success or deletes it on failure — see pool.Pool.WithSession. timeout
// bounds the acquire wait only; fn is responsible for bounding its own RPCs.
func (c *TableClient) WithSession(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, s *session.Session) error) error {
	return c.pool.WithSession(ctx, timeout, fn)
}

// PoolSize reports the current number of sessions held by the table pool.
func (c *TableClient) PoolSize() int { return c.pool.Size() }

// CreateTable issues CreateTable against path (relative to the driver's
// database) using a pooled session, retried per the classification in
// internal/retryengine.
func (c *TableClient) CreateTable(ctx context.Context, path string, desc *TableDescription, timeout time.Duration, retry ...RetryParameters) error {
	return c.withRetries(ctx, retry, func(ctx context.Context) error {
		return c.WithSession(ctx, timeout, func(ctx context.Context, s *session.Session) error {
			return s.CreateTable(ctx, c.driver.database, path, desc.toPB(), timeout)
		})
	})
}

// DropTable issues DropTable; dropping an absent table is a no-op, per
// Session.DropTable's scheme-error tolerance.
func (c *TableClient) DropTable(ctx context.Context, path string, timeout time.Duration, retry ...RetryParameters) error {
	return c.withRetries(ctx, retry, func(ctx context.Context) error {
		return c.WithSession(ctx, timeout, func(ctx context.Context, s *session.Session) error {
			return s.DropTable(ctx, c.driver.database, path, timeout)
		})
	})
}

// DescribeTable returns the schema of path as currently known to the server.
func (c *TableClient) DescribeTable(ctx context.Context, path string, timeout time.Duration, retry ...RetryParameters) (*session.TableSchema, error) {
	var schema *session.TableSchema
	err := c.withRetries(ctx, retry, func(ctx context.Context) error {
		return c.WithSession(ctx, timeout, func(ctx context.Context, s *session.Session) error {
			var err error
			schema, err = s.DescribeTable(ctx, c.driver.database, path, timeout)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return schema, nil
}

// ExecuteQuery runs yql (auto-prepared via PrepareQuery) with params under
// AutoTX. Per §4.7, execute is never self-retried by the session — callers
// that want retries compose WithRetries around this call explicitly.
func (c *TableClient) ExecuteQuery(ctx context.Context, yql string, params []*ydbpb.QueryParam, timeout time.Duration) (*session.ResultSet, error) {
	var rs *session.ResultSet
	err := c.WithSession(ctx, timeout, func(ctx context.Context, s *session.Session) error {
		queryID, err := s.PrepareQuery(ctx, yql, timeout)
		if err != nil {
			return err
		}
		result, err := s.ExecuteQuery(ctx, &ydbpb.Query{QueryId: queryID}, params, nil, timeout)
		if err != nil {
			return err
		}
		rs = result
		return nil
	})
	return rs, err
}

func (c *TableClient) withRetries(ctx context.Context, retry []RetryParameters, op func(ctx context.Context) error) error {
	params := DefaultRetryParameters()
	if len(retry) > 0 {
		params = retry[0]
	}
	return WithRetries(ctx, op, params)
}

// destroy tears down the table pool. Driver.Destroy is the intended caller.
func (c *TableClient) destroy(ctx context.Context) {
	c.pool.Destroy(ctx)
}
