package ydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableDescriptionBuilderAssemblesColumnsAndKey(t *testing.T) {
	desc := NewTableDescription().
		WithColumn("id", "Uint64").
		WithColumn("name", "Utf8").
		WithPrimaryKey("id").
		WithIndex("by_name", "name").
		WithTTL("created_at", 3600)

	pb := desc.toPB()
	assert.Len(t, pb.Columns, 2)
	assert.Equal(t, "id", pb.Columns[0].Name)
	assert.Equal(t, "Uint64", pb.Columns[0].Type)
	assert.Equal(t, []string{"id"}, pb.PrimaryKey)
	assert.Len(t, pb.Indexes, 1)
	assert.Equal(t, "by_name", pb.Indexes[0].Name)
	assert.Equal(t, []string{"name"}, pb.Indexes[0].Columns)
	assert.Equal(t, "created_at", pb.TtlColumn)
	assert.Equal(t, uint32(3600), pb.TtlSeconds)
}

func TestTableDescriptionBuilderWithoutOptionalsLeavesZeroValues(t *testing.T) {
	pb := NewTableDescription().WithColumn("id", "Uint64").WithPrimaryKey("id").toPB()
	assert.Empty(t, pb.Indexes)
	assert.Empty(t, pb.TtlColumn)
	assert.Equal(t, uint32(0), pb.TtlSeconds)
}
