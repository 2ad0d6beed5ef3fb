package ydb

import (
	"context"
	"time"

	"github.com/suleymanmyradov/ydb-go-driver/internal/pool"
	"github.com/suleymanmyradov/ydb-go-driver/internal/session"
	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
)

// SchemeClient exposes directory operations (MakeDirectory, RemoveDirectory,
// ListDirectory). It keeps its own small session pool rather than sharing
// TableClient's — schema operations are infrequent and shouldn't compete
// with query traffic for pooled sessions.
type SchemeClient struct {
	driver *Driver
	pool   *pool.Pool
}

func newSchemeClient(d *Driver, cfg pool.Config) *SchemeClient {
	creator := &driverSessionCreator{d: d, createTimeout: cfg.CreateTimeout}
	return &SchemeClient{driver: d, pool: pool.New(creator, cfg)}
}

// DirectoryEntry names one child of a listed directory and its scheme kind
// (table, directory, ...).
type DirectoryEntry struct {
	Name string
	Type string
}

// MakeDirectory creates path (relative to the driver's database).
func (c *SchemeClient) MakeDirectory(ctx context.Context, path string, timeout time.Duration, retry ...RetryParameters) error {
	return c.withRetries(ctx, retry, func(ctx context.Context) error {
		return c.pool.WithSession(ctx, timeout, func(ctx context.Context, s *session.Session) error {
			return makeDirectory(ctx, s, c.driver.database, path, timeout)
		})
	})
}

// RemoveDirectory removes path. Idempotent against an already-absent
// directory, mirroring Session.DropTable's scheme-error tolerance.
func (c *SchemeClient) RemoveDirectory(ctx context.Context, path string, timeout time.Duration, retry ...RetryParameters) error {
	return c.withRetries(ctx, retry, func(ctx context.Context) error {
		return c.pool.WithSession(ctx, timeout, func(ctx context.Context, s *session.Session) error {
			return removeDirectory(ctx, s, c.driver.database, path, timeout)
		})
	})
}

// ListDirectory lists the immediate children of path.
func (c *SchemeClient) ListDirectory(ctx context.Context, path string, timeout time.Duration, retry ...RetryParameters) ([]DirectoryEntry, error) {
	var entries []DirectoryEntry
	err := c.withRetries(ctx, retry, func(ctx context.Context) error {
		return c.pool.WithSession(ctx, timeout, func(ctx context.Context, s *session.Session) error {
			got, err := listDirectory(ctx, s, c.driver.database, path, timeout)
			entries = got
			return err
		})
	})
	return entries, err
}

// withRetries mirrors TableClient.withRetries: scheme operations get the
// same retry decoration table operations do, per §4.5's operation table.
func (c *SchemeClient) withRetries(ctx context.Context, retry []RetryParameters, op func(ctx context.Context) error) error {
	params := DefaultRetryParameters()
	if len(retry) > 0 {
		params = retry[0]
	}
	return WithRetries(ctx, op, params)
}

func (c *SchemeClient) destroy(ctx context.Context) {
	c.pool.Destroy(ctx)
}

// The three helpers below call the scheme service directly through the
// session's transport, the same way session.Session's own methods call the
// table service — scheme operations don't need a server-side session id, but
// they do need an authenticated, pessimization-aware Transport, which a
// pooled Session already carries.

func makeDirectory(ctx context.Context, s *session.Session, database, path string, timeout time.Duration) error {
	tx := s.Transport()
	full := database + "/" + path
	var resp *ydbpb.MakeDirectoryResponse
	err := tx.Call(ctx, "makeDirectory", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewSchemeServiceClient(tx.Conn).MakeDirectory(ctx, &ydbpb.MakeDirectoryRequest{Path: full})
		resp = r
		return err
	})
	if err != nil {
		return err
	}
	if resp.Op != nil && resp.Op.Status != ydbpb.StatusSuccess {
		return ydberrFromOp(full, resp.Op)
	}
	return nil
}

func removeDirectory(ctx context.Context, s *session.Session, database, path string, timeout time.Duration) error {
	tx := s.Transport()
	full := database + "/" + path
	var resp *ydbpb.RemoveDirectoryResponse
	err := tx.Call(ctx, "removeDirectory", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewSchemeServiceClient(tx.Conn).RemoveDirectory(ctx, &ydbpb.RemoveDirectoryRequest{Path: full})
		resp = r
		return err
	})
	if err != nil {
		return err
	}
	if resp.Op != nil && resp.Op.Status == ydbpb.StatusSchemeError {
		return nil
	}
	if resp.Op != nil && resp.Op.Status != ydbpb.StatusSuccess {
		return ydberrFromOp(full, resp.Op)
	}
	return nil
}

func listDirectory(ctx context.Context, s *session.Session, database, path string, timeout time.Duration) ([]DirectoryEntry, error) {
	tx := s.Transport()
	full := database + "/" + path
	var resp *ydbpb.ListDirectoryResponse
	err := tx.Call(ctx, "listDirectory", timeout, func(ctx context.Context) error {
		r, err := ydbpb.NewSchemeServiceClient(tx.Conn).ListDirectory(ctx, &ydbpb.ListDirectoryRequest{Path: full})
		resp = r
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp.Op != nil && resp.Op.Status != ydbpb.StatusSuccess {
		return nil, ydberrFromOp(full, resp.Op)
	}
	entries := make([]DirectoryEntry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, DirectoryEntry{Name: e.Name, Type: e.Type})
	}
	return entries, nil
}
