package ydb

import (
	"context"
	"time"

	"github.com/suleymanmyradov/ydb-go-driver/internal/retryengine"
)

// RetryParameters bounds one WithRetries invocation: a maximum attempt
// count, a capped exponential backoff slot, and an overall deadline — the
// same three knobs internal/retryengine.Parameters exposes, re-typed here
// so callers of the public API never import an internal package.
type RetryParameters struct {
	MaxRetries     int
	BackoffSlot    time.Duration
	BackoffCeiling time.Duration
	Deadline       time.Duration
}

// DefaultRetryParameters mirrors retryengine.DefaultParameters.
func DefaultRetryParameters() RetryParameters {
	d := retryengine.DefaultParameters()
	return RetryParameters{
		MaxRetries:     d.MaxRetries,
		BackoffSlot:    d.BackoffSlot,
		BackoffCeiling: d.BackoffCeiling,
		Deadline:       d.Deadline,
	}
}

// WithRetries runs op under params (DefaultRetryParameters if the zero
// value), retrying per the classification in internal/retryengine, until it
// succeeds, hits a fatal error, exhausts MaxRetries, or the deadline
// elapses. A ClassSessionBroken outcome is returned to the caller
// unretried — the session pool's WithSession already evicts the session
// that produced it, so the retry engine itself needs no broken-session hook
// at this layer.
func WithRetries(ctx context.Context, op func(ctx context.Context) error, params RetryParameters) error {
	if (params == RetryParameters{}) {
		params = DefaultRetryParameters()
	}
	return retryengine.WithRetries(ctx, op, retryengine.Parameters{
		MaxRetries:     params.MaxRetries,
		BackoffSlot:    params.BackoffSlot,
		BackoffCeiling: params.BackoffCeiling,
		Deadline:       params.Deadline,
	}, nil)
}
