package retryengine

import (
	"context"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/suleymanmyradov/ydb-go-driver/internal/metrics"
	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

// Parameters configures one withRetries invocation: bounded attempts, a
// capped exponential backoff slot, and an overall deadline. Both bounds
// apply: maxRetries caps the number of attempts, and the deadline stops
// further attempts once the cumulative elapsed time exceeds it, which is
// what bounds the total when individual attempts or backoff waits are slow.
type Parameters struct {
	MaxRetries     int
	BackoffSlot    time.Duration
	BackoffCeiling time.Duration
	Deadline       time.Duration

	// Metrics, if set, receives one ObserveRetry call per classified
	// attempt. Nil is the common case and costs nothing.
	Metrics *metrics.Collectors
}

// DefaultParameters mirrors the values a first call to WithRetries should
// use when the caller supplies none.
func DefaultParameters() Parameters {
	return Parameters{
		MaxRetries:     10,
		BackoffSlot:    5 * time.Millisecond,
		BackoffCeiling: 1 * time.Second,
		Deadline:       30 * time.Second,
	}
}

// SessionBrokenHook is invoked when an attempt's error classifies as
// ClassSessionBroken, so the caller (normally the session pool) can evict
// the session. The engine itself never retries on the same session.
type SessionBrokenHook func(err error)

// Op is the shape every retryable operation takes: no arguments beyond a
// context, a single classified error return. Callers close over whatever
// session/args they need.
type Op func(ctx context.Context) error

// WithRetries runs op, retrying according to params and the classification
// in Classify, until it succeeds, a fatal error is hit, maxRetries is
// exhausted, or the deadline elapses — whichever comes first. onBroken, if
// non-nil, fires exactly once per attempt classified ClassSessionBroken.
func WithRetries(ctx context.Context, op Op, params Parameters, onBroken SessionBrokenHook) error {
	start := time.Now()
	var lastErr error

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = params.BackoffSlot
	bo.MaxInterval = params.BackoffCeiling
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.2
	bo.MaxElapsedTime = 0 // the engine enforces the deadline itself, not backoff
	bo.Reset()

	for attempt := 0; attempt <= params.MaxRetries; attempt++ {
		if elapsed := time.Since(start); attempt > 0 && elapsed > params.Deadline {
			logx.WithContext(ctx).Errorf("withRetries: deadline %s exceeded after %d attempts: %v", params.Deadline, attempt, lastErr)
			return lastErr
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		class := Classify(err)
		params.Metrics.ObserveRetry(classLabel(class))
		switch class {
		case ClassFatal:
			return err
		case ClassSessionBroken:
			if onBroken != nil {
				onBroken(err)
			}
			return err
		case ClassRetryableFast:
			if attempt > 0 {
				if waitErr := sleepFor(ctx, jitter(bo.NextBackOff())); waitErr != nil {
					return waitErr
				}
			}
		case ClassRetryableSlow:
			if waitErr := sleepFor(ctx, jitter(bo.NextBackOff())); waitErr != nil {
				return waitErr
			}
		}

		logx.WithContext(ctx).Debugf("withRetries: attempt %d failed, class=%d: %v", attempt, class, err)
	}

	return lastErr
}

func classLabel(c Class) string {
	switch c {
	case ClassFatal:
		return "fatal"
	case ClassRetryableFast:
		return "retryable_fast"
	case ClassRetryableSlow:
		return "retryable_slow"
	case ClassSessionBroken:
		return "session_broken"
	default:
		return "unknown"
	}
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	// backoff.ExponentialBackOff already randomizes; add a small extra
	// spread so many clients woken by the same event don't retry in lockstep.
	spread := time.Duration(rand.Int63n(int64(d) / 10 + 1))
	return d + spread
}

func sleepFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return &ydberr.TimeoutExpired{Op: "withRetries.backoff", Timeout: d.String()}
	}
}
