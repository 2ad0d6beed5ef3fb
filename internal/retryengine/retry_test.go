package retryengine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassFatal},
		{"transport", &ydberr.TransportError{Endpoint: "e", Cause: errors.New("x")}, ClassRetryableSlow},
		{"timeout", &ydberr.TimeoutExpired{Op: "op", Timeout: "1s"}, ClassRetryableSlow},
		{"aborted", ydberr.NewYdbError(ydbpb.StatusAborted, nil), ClassRetryableFast},
		{"overloaded", ydberr.NewYdbError(ydbpb.StatusOverloaded, nil), ClassRetryableFast},
		{"unavailable", ydberr.NewYdbError(ydbpb.StatusUnavailable, nil), ClassRetryableSlow},
		{"bad session", ydberr.NewYdbError(ydbpb.StatusBadSession, nil), ClassSessionBroken},
		{"session expired", ydberr.NewYdbError(ydbpb.StatusSessionExpired, nil), ClassSessionBroken},
		{"generic", ydberr.NewYdbError(ydbpb.StatusGenericError, nil), ClassFatal},
		{"scheme error", ydberr.NewSchemeError("/local/missing", nil), ClassFatal},
		{"unclassified", errors.New("boom"), ClassFatal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func fastParams() Parameters {
	return Parameters{
		MaxRetries:     5,
		BackoffSlot:    time.Millisecond,
		BackoffCeiling: 5 * time.Millisecond,
		Deadline:       time.Second,
	}
}

func TestWithRetriesSucceedsEventually(t *testing.T) {
	attempts := 0
	err := WithRetries(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return ydberr.NewYdbError(ydbpb.StatusOverloaded, nil)
		}
		return nil
	}, fastParams(), nil)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetriesStopsOnFatal(t *testing.T) {
	attempts := 0
	fatal := ydberr.NewYdbError(ydbpb.StatusGenericError, nil)
	err := WithRetries(context.Background(), func(ctx context.Context) error {
		attempts++
		return fatal
	}, fastParams(), nil)

	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetriesInvokesSessionBrokenHookOnce(t *testing.T) {
	var hookCalls int
	attempts := 0
	broken := ydberr.NewYdbError(ydbpb.StatusBadSession, nil)
	err := WithRetries(context.Background(), func(ctx context.Context) error {
		attempts++
		return broken
	}, fastParams(), func(err error) { hookCalls++ })

	assert.Equal(t, broken, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, hookCalls)
}

func TestWithRetriesExhaustsMaxRetries(t *testing.T) {
	attempts := 0
	transient := ydberr.NewYdbError(ydbpb.StatusOverloaded, nil)
	params := fastParams()
	params.MaxRetries = 2

	err := WithRetries(context.Background(), func(ctx context.Context) error {
		attempts++
		return transient
	}, params, nil)

	assert.Equal(t, transient, err)
	assert.Equal(t, params.MaxRetries+1, attempts)
}

func TestWithRetriesRespectsDeadline(t *testing.T) {
	params := Parameters{
		MaxRetries:     1000,
		BackoffSlot:    20 * time.Millisecond,
		BackoffCeiling: 20 * time.Millisecond,
		Deadline:       30 * time.Millisecond,
	}
	transient := ydberr.NewYdbError(ydbpb.StatusOverloaded, nil)

	start := time.Now()
	err := WithRetries(context.Background(), func(ctx context.Context) error {
		return transient
	}, params, nil)
	elapsed := time.Since(start)

	assert.Equal(t, transient, err)
	assert.Less(t, elapsed, 2*time.Second)
}
