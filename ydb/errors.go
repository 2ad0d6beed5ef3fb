package ydb

import (
	"errors"

	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

// StatusCode re-exposes the wire-level operation status so callers never
// need to import the internal pb stand-ins directly.
type StatusCode = ydbpb.StatusCode

const (
	StatusSuccess        = ydbpb.StatusSuccess
	StatusAborted        = ydbpb.StatusAborted
	StatusUnavailable    = ydbpb.StatusUnavailable
	StatusOverloaded     = ydbpb.StatusOverloaded
	StatusSchemeError    = ydbpb.StatusSchemeError
	StatusBadSession     = ydbpb.StatusBadSession
	StatusSessionBusy    = ydbpb.StatusSessionBusy
	StatusSessionExpired = ydbpb.StatusSessionExpired
)

// The public error kinds are type aliases onto ydberr so both the public
// API and the internal engine share one set of concrete types.
type (
	YdbError          = ydberr.YdbError
	SchemeError       = ydberr.SchemeError
	TimeoutExpired    = ydberr.TimeoutExpired
	TransportError    = ydberr.TransportError
	EmptyPayloadError = ydberr.EmptyPayloadError
)

// IsSchemeError reports whether err (or something it wraps) is a SchemeError.
func IsSchemeError(err error) bool {
	var se *SchemeError
	return errors.As(err, &se)
}

// ydberrFromOp converts a non-success scheme-service operation envelope
// into the same error taxonomy session.sessionErr applies to table-service
// responses: a SchemeError for StatusSchemeError, otherwise a YdbError.
func ydberrFromOp(path string, op *ydbpb.Operation) error {
	if op.Status == ydbpb.StatusSchemeError {
		return ydberr.NewSchemeError(path, op.Issues)
	}
	return ydberr.NewYdbError(op.Status, op.Issues)
}
