package retryengine

import (
	"errors"

	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

// Class is the retry classification an error is sorted into before the
// engine decides whether, and how, to retry.
type Class int

const (
	// ClassFatal is never retried; it propagates to the caller unchanged.
	ClassFatal Class = iota
	// ClassRetryableFast covers transient server errors with no session
	// impact (ABORTED, OVERLOADED): retried without backoff on the first
	// attempt, with exponential backoff afterwards.
	ClassRetryableFast
	// ClassRetryableSlow covers client-transient failures (UNAVAILABLE,
	// DEADLINE): always backed off before retrying.
	ClassRetryableSlow
	// ClassSessionBroken marks the session used for the failed attempt as
	// Broken; the engine never retries on the same session.
	ClassSessionBroken
)

// Classify maps an error observed from an RPC attempt onto a retry Class,
// per the table in the retry-engine design: fast-retryable server statuses,
// slow-retryable transport conditions, session-scoped failures, and
// everything else (fatal).
func Classify(err error) Class {
	if err == nil {
		return ClassFatal
	}

	var transportErr *ydberr.TransportError
	if errors.As(err, &transportErr) {
		return ClassRetryableSlow
	}

	var timeoutErr *ydberr.TimeoutExpired
	if errors.As(err, &timeoutErr) {
		return ClassRetryableSlow
	}

	var ydbErr *ydberr.YdbError
	if errors.As(err, &ydbErr) {
		switch ydbErr.Code {
		case ydbpb.StatusAborted, ydbpb.StatusOverloaded:
			return ClassRetryableFast
		case ydbpb.StatusUnavailable:
			return ClassRetryableSlow
		case ydbpb.StatusBadSession, ydbpb.StatusSessionExpired:
			return ClassSessionBroken
		default:
			return ClassFatal
		}
	}

	// SchemeError (schema/name issues an operation didn't tolerate as
	// success-equivalent) falls through here: a missing table or directory
	// never becomes retryable by waiting.
	var schemeErr *ydberr.SchemeError
	if errors.As(err, &schemeErr) {
		return ClassFatal
	}

	return ClassFatal
}
