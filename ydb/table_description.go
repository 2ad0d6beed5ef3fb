package ydb

import "github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"

// Column is one column in a TableDescription.
type Column struct {
	Name string
	Type string
}

// Index describes a secondary index over one or more columns.
type Index struct {
	Name    string
	Columns []string
}

// TableDescription is the builder CreateTable accepts: columns, a primary
// key, and optionally secondary indexes and a TTL column, assembled via the
// With* chain before being passed to TableClient.CreateTable.
type TableDescription struct {
	columns    []Column
	primaryKey []string
	indexes    []Index
	ttlColumn  string
	ttlSeconds uint32
}

// NewTableDescription starts an empty builder.
func NewTableDescription() *TableDescription {
	return &TableDescription{}
}

// WithColumn appends one column definition.
func (d *TableDescription) WithColumn(name, typ string) *TableDescription {
	d.columns = append(d.columns, Column{Name: name, Type: typ})
	return d
}

// WithPrimaryKey sets the primary key column list, in order.
func (d *TableDescription) WithPrimaryKey(columns ...string) *TableDescription {
	d.primaryKey = columns
	return d
}

// WithIndex adds a secondary index over the given columns.
func (d *TableDescription) WithIndex(name string, columns ...string) *TableDescription {
	d.indexes = append(d.indexes, Index{Name: name, Columns: columns})
	return d
}

// WithTTL marks column as the row-expiry clock: rows are eligible for
// background deletion ttlSeconds after the value in column.
func (d *TableDescription) WithTTL(column string, ttlSeconds uint32) *TableDescription {
	d.ttlColumn = column
	d.ttlSeconds = ttlSeconds
	return d
}

func (d *TableDescription) toPB() *ydbpb.TableDescriptionPB {
	cols := make([]*ydbpb.ColumnMeta, 0, len(d.columns))
	for _, c := range d.columns {
		cols = append(cols, &ydbpb.ColumnMeta{Name: c.Name, Type: c.Type})
	}
	indexes := make([]*ydbpb.TableIndex, 0, len(d.indexes))
	for _, i := range d.indexes {
		indexes = append(indexes, &ydbpb.TableIndex{Name: i.Name, Columns: i.Columns})
	}
	return &ydbpb.TableDescriptionPB{
		Columns:    cols,
		PrimaryKey: d.primaryKey,
		Indexes:    indexes,
		TtlColumn:  d.ttlColumn,
		TtlSeconds: d.ttlSeconds,
	}
}
