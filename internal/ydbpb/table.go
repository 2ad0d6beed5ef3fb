package ydbpb

import (
	"context"

	"google.golang.org/grpc"
)

// Operation is the common envelope every table RPC response carries: the
// server signals application-level outcome here, independent of the gRPC
// transport status.
type Operation struct {
	Status StatusCode
	Issues []string
}

type CreateSessionRequest struct{}

type CreateSessionResponse struct {
	Op        *Operation
	SessionId string
}

type DeleteSessionRequest struct {
	SessionId string
}

type DeleteSessionResponse struct {
	Op *Operation
}

type KeepAliveRequest struct {
	SessionId string
}

type KeepAliveResponse struct {
	Op *Operation
}

type ColumnMeta struct {
	Name string
	Type string
}

type TableDescriptionPB struct {
	Columns    []*ColumnMeta
	PrimaryKey []string
	Indexes    []*TableIndex
	TtlColumn  string
	TtlSeconds uint32
}

type TableIndex struct {
	Name    string
	Columns []string
}

type CreateTableRequest struct {
	Path        string
	Description *TableDescriptionPB
}

type CreateTableResponse struct {
	Op *Operation
}

type DropTableRequest struct {
	Path string
}

type DropTableResponse struct {
	Op *Operation
}

type DescribeTableRequest struct {
	Path string
}

type DescribeTableResponse struct {
	Op          *Operation
	Description *TableDescriptionPB
}

type TransactionSettings struct {
	SerializableReadWrite bool
	StaleReadOnly         bool
}

type TransactionControl struct {
	// Exactly one of TxId or BeginSettings is set.
	TxId          string
	BeginSettings *TransactionSettings
	CommitTx      bool
}

type BeginTransactionRequest struct {
	SessionId   string
	TxSettings  *TransactionSettings
}

type TransactionMeta struct {
	Id string
}

type BeginTransactionResponse struct {
	Op   *Operation
	TxMeta *TransactionMeta
}

type CommitTransactionRequest struct {
	SessionId string
	TxId      string
}

type CommitTransactionResponse struct {
	Op *Operation
}

type RollbackTransactionRequest struct {
	SessionId string
	TxId      string
}

type RollbackTransactionResponse struct {
	Op *Operation
}

type PrepareDataQueryRequest struct {
	SessionId string
	YqlText   string
}

type PrepareDataQueryResponse struct {
	Op      *Operation
	QueryId string
}

// QueryParam is a single bound YQL parameter: an opaque value the concrete
// type-marshalling collaborator (out of scope here) produces.
type QueryParam struct {
	Name  string
	Value any
}

type Query struct {
	// Exactly one of QueryId or YqlText is set.
	QueryId string
	YqlText string
}

type ExecuteDataQueryRequest struct {
	SessionId string
	Query     *Query
	Params    []*QueryParam
	TxControl *TransactionControl
}

type ResultSetPB struct {
	Columns []*ColumnMeta
	Rows    [][]any
}

type ExecuteDataQueryResponse struct {
	Op         *Operation
	TxMeta     *TransactionMeta
	ResultSets []*ResultSetPB
}

// TableServiceClient is the stand-in for the generated table-service stub.
type TableServiceClient interface {
	CreateSession(ctx context.Context, in *CreateSessionRequest, opts ...grpc.CallOption) (*CreateSessionResponse, error)
	DeleteSession(ctx context.Context, in *DeleteSessionRequest, opts ...grpc.CallOption) (*DeleteSessionResponse, error)
	KeepAlive(ctx context.Context, in *KeepAliveRequest, opts ...grpc.CallOption) (*KeepAliveResponse, error)
	CreateTable(ctx context.Context, in *CreateTableRequest, opts ...grpc.CallOption) (*CreateTableResponse, error)
	DropTable(ctx context.Context, in *DropTableRequest, opts ...grpc.CallOption) (*DropTableResponse, error)
	DescribeTable(ctx context.Context, in *DescribeTableRequest, opts ...grpc.CallOption) (*DescribeTableResponse, error)
	BeginTransaction(ctx context.Context, in *BeginTransactionRequest, opts ...grpc.CallOption) (*BeginTransactionResponse, error)
	CommitTransaction(ctx context.Context, in *CommitTransactionRequest, opts ...grpc.CallOption) (*CommitTransactionResponse, error)
	RollbackTransaction(ctx context.Context, in *RollbackTransactionRequest, opts ...grpc.CallOption) (*RollbackTransactionResponse, error)
	PrepareDataQuery(ctx context.Context, in *PrepareDataQueryRequest, opts ...grpc.CallOption) (*PrepareDataQueryResponse, error)
	ExecuteDataQuery(ctx context.Context, in *ExecuteDataQueryRequest, opts ...grpc.CallOption) (*ExecuteDataQueryResponse, error)
}

type tableServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTableServiceClient(cc grpc.ClientConnInterface) TableServiceClient {
	return &tableServiceClient{cc: cc}
}

func (c *tableServiceClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, "/Ydb.Table.V1.TableService/"+method, in, out, opts...)
}

func (c *tableServiceClient) CreateSession(ctx context.Context, in *CreateSessionRequest, opts ...grpc.CallOption) (*CreateSessionResponse, error) {
	out := new(CreateSessionResponse)
	if err := c.invoke(ctx, "CreateSession", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tableServiceClient) DeleteSession(ctx context.Context, in *DeleteSessionRequest, opts ...grpc.CallOption) (*DeleteSessionResponse, error) {
	out := new(DeleteSessionResponse)
	if err := c.invoke(ctx, "DeleteSession", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tableServiceClient) KeepAlive(ctx context.Context, in *KeepAliveRequest, opts ...grpc.CallOption) (*KeepAliveResponse, error) {
	out := new(KeepAliveResponse)
	if err := c.invoke(ctx, "KeepAlive", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tableServiceClient) CreateTable(ctx context.Context, in *CreateTableRequest, opts ...grpc.CallOption) (*CreateTableResponse, error) {
	out := new(CreateTableResponse)
	if err := c.invoke(ctx, "CreateTable", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tableServiceClient) DropTable(ctx context.Context, in *DropTableRequest, opts ...grpc.CallOption) (*DropTableResponse, error) {
	out := new(DropTableResponse)
	if err := c.invoke(ctx, "DropTable", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tableServiceClient) DescribeTable(ctx context.Context, in *DescribeTableRequest, opts ...grpc.CallOption) (*DescribeTableResponse, error) {
	out := new(DescribeTableResponse)
	if err := c.invoke(ctx, "DescribeTable", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tableServiceClient) BeginTransaction(ctx context.Context, in *BeginTransactionRequest, opts ...grpc.CallOption) (*BeginTransactionResponse, error) {
	out := new(BeginTransactionResponse)
	if err := c.invoke(ctx, "BeginTransaction", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tableServiceClient) CommitTransaction(ctx context.Context, in *CommitTransactionRequest, opts ...grpc.CallOption) (*CommitTransactionResponse, error) {
	out := new(CommitTransactionResponse)
	if err := c.invoke(ctx, "CommitTransaction", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tableServiceClient) RollbackTransaction(ctx context.Context, in *RollbackTransactionRequest, opts ...grpc.CallOption) (*RollbackTransactionResponse, error) {
	out := new(RollbackTransactionResponse)
	if err := c.invoke(ctx, "RollbackTransaction", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tableServiceClient) PrepareDataQuery(ctx context.Context, in *PrepareDataQueryRequest, opts ...grpc.CallOption) (*PrepareDataQueryResponse, error) {
	out := new(PrepareDataQueryResponse)
	if err := c.invoke(ctx, "PrepareDataQuery", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tableServiceClient) ExecuteDataQuery(ctx context.Context, in *ExecuteDataQueryRequest, opts ...grpc.CallOption) (*ExecuteDataQueryResponse, error) {
	out := new(ExecuteDataQueryResponse)
	if err := c.invoke(ctx, "ExecuteDataQuery", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
