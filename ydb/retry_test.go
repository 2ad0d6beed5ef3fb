package ydb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
	"github.com/suleymanmyradov/ydb-go-driver/ydb/ydberr"
)

func TestWithRetriesUsesDefaultParametersWhenZeroValue(t *testing.T) {
	attempts := 0
	err := WithRetries(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	}, RetryParameters{})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetriesRetriesUnavailableAndSucceeds(t *testing.T) {
	attempts := 0
	err := WithRetries(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return ydberr.NewYdbError(ydbpb.StatusUnavailable, nil)
		}
		return nil
	}, DefaultRetryParameters())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetriesStopsImmediatelyOnFatalError(t *testing.T) {
	attempts := 0
	err := WithRetries(context.Background(), func(ctx context.Context) error {
		attempts++
		return ydberr.NewYdbError(ydbpb.StatusSchemeError, nil)
	}, DefaultRetryParameters())
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
