package ydb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
)

func TestIsSchemeErrorDetectsWrappedSchemeError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &SchemeError{Path: "/local/missing", Issues: []string{"not found"}})
	assert.True(t, IsSchemeError(err))
	assert.False(t, IsSchemeError(&YdbError{Code: StatusAborted}))
}

func TestYdberrFromOpBuildsYdbError(t *testing.T) {
	err := ydberrFromOp("/local/widgets", &ydbpb.Operation{Status: ydbpb.StatusUnavailable, Issues: []string{"overloaded shard"}})
	var ydbErr *YdbError
	assert.ErrorAs(t, err, &ydbErr)
	assert.Equal(t, StatusUnavailable, ydbErr.Code)
	assert.Equal(t, []string{"overloaded shard"}, ydbErr.Issues)
}

func TestYdberrFromOpBuildsSchemeError(t *testing.T) {
	err := ydberrFromOp("/local/missing", &ydbpb.Operation{Status: ydbpb.StatusSchemeError, Issues: []string{"path not found"}})
	assert.True(t, IsSchemeError(err))
	var schemeErr *SchemeError
	assert.ErrorAs(t, err, &schemeErr)
	assert.Equal(t, "/local/missing", schemeErr.Path)
}
