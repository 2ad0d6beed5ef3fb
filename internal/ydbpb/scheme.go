package ydbpb

import (
	"context"

	"google.golang.org/grpc"
)

type MakeDirectoryRequest struct {
	Path string
}

type MakeDirectoryResponse struct {
	Op *Operation
}

type RemoveDirectoryRequest struct {
	Path string
}

type RemoveDirectoryResponse struct {
	Op *Operation
}

type ListDirectoryRequest struct {
	Path string
}

type DirectoryEntry struct {
	Name string
	Type string
}

type ListDirectoryResponse struct {
	Op      *Operation
	Entries []*DirectoryEntry
}

// SchemeServiceClient is the stand-in for the generated scheme-service stub.
type SchemeServiceClient interface {
	MakeDirectory(ctx context.Context, in *MakeDirectoryRequest, opts ...grpc.CallOption) (*MakeDirectoryResponse, error)
	RemoveDirectory(ctx context.Context, in *RemoveDirectoryRequest, opts ...grpc.CallOption) (*RemoveDirectoryResponse, error)
	ListDirectory(ctx context.Context, in *ListDirectoryRequest, opts ...grpc.CallOption) (*ListDirectoryResponse, error)
}

type schemeServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSchemeServiceClient(cc grpc.ClientConnInterface) SchemeServiceClient {
	return &schemeServiceClient{cc: cc}
}

func (c *schemeServiceClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, "/Ydb.Scheme.V1.SchemeService/"+method, in, out, opts...)
}

func (c *schemeServiceClient) MakeDirectory(ctx context.Context, in *MakeDirectoryRequest, opts ...grpc.CallOption) (*MakeDirectoryResponse, error) {
	out := new(MakeDirectoryResponse)
	if err := c.invoke(ctx, "MakeDirectory", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schemeServiceClient) RemoveDirectory(ctx context.Context, in *RemoveDirectoryRequest, opts ...grpc.CallOption) (*RemoveDirectoryResponse, error) {
	out := new(RemoveDirectoryResponse)
	if err := c.invoke(ctx, "RemoveDirectory", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schemeServiceClient) ListDirectory(ctx context.Context, in *ListDirectoryRequest, opts ...grpc.CallOption) (*ListDirectoryResponse, error) {
	out := new(ListDirectoryResponse)
	if err := c.invoke(ctx, "ListDirectory", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
