// Package ydberr holds the driver's error taxonomy. It is split out from
// the public ydb package so internal packages (retry engine, transport,
// session, pool) can construct and classify these errors without importing
// the public package and creating an import cycle; ydb re-exports the
// types callers are meant to use.
package ydberr

import (
	"fmt"

	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
)

// YdbError wraps a status-coded server response. It is the catch-all error
// kind for anything the server rejected at the application layer (as
// opposed to a transport-level failure, see TransportError).
type YdbError struct {
	Code   ydbpb.StatusCode
	Issues []string
	Cause  error
}

func (e *YdbError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ydb: status %s: %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("ydb: status %s %v", e.Code, e.Issues)
}

func (e *YdbError) Unwrap() error { return e.Cause }

// NewYdbError constructs a YdbError from a decoded operation status.
func NewYdbError(code ydbpb.StatusCode, issues []string) *YdbError {
	return &YdbError{Code: code, Issues: issues}
}

// SchemeError is the specific status for schema/name issues (e.g. dropping
// a table that does not exist). Several operations tolerate it as a
// success-equivalent; see Session.DropTable.
type SchemeError struct {
	Path   string
	Issues []string
}

func (e *SchemeError) Error() string {
	return fmt.Sprintf("ydb: scheme error for %q: %v", e.Path, e.Issues)
}

// NewSchemeError constructs a SchemeError for an operation whose status
// came back StatusSchemeError and was not tolerated as success-equivalent
// by the caller (see Session.DropTable/SchemeClient.RemoveDirectory for the
// operations that do tolerate it).
func NewSchemeError(path string, issues []string) *SchemeError {
	return &SchemeError{Path: path, Issues: issues}
}

// TimeoutExpired is surfaced verbatim whenever a deadline or bounded wait
// elapses: transport.WithTimeout, SessionPool.Acquire (wrapped in the pool's
// own message), and the retry engine's backoff wait when ctx is cancelled.
// Discovery.Ready reports its timeout by returning false instead.
type TimeoutExpired struct {
	Op      string
	Timeout string
}

func (e *TimeoutExpired) Error() string {
	return fmt.Sprintf("ydb: %s: timeout expired after %s", e.Op, e.Timeout)
}

// TransportError wraps a connection-level failure (dial failure, DEADLINE,
// UNAVAILABLE). Observing one pessimizes the endpoint it was raised against.
type TransportError struct {
	Endpoint string
	Cause    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ydb: transport error against %s: %v", e.Endpoint, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// EmptyPayloadError marks a server response that reported success but
// omitted the payload the caller needed (no txMeta, no iamToken, ...).
// Always fatal — never retried.
type EmptyPayloadError struct {
	Op string
}

func (e *EmptyPayloadError) Error() string {
	return fmt.Sprintf("ydb: %s: server returned success with an empty payload", e.Op)
}
