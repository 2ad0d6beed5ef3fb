// Package ydbpb holds hand-maintained stand-ins for the generated gRPC
// service stubs this driver talks to. A real build generates these from the
// server's .proto IDL; here they are written by hand in the same shape
// protoc-gen-go-grpc would produce, since compiling the IDL is out of scope
// for this driver.
package ydbpb

import (
	"context"

	"google.golang.org/grpc"
)

// EndpointInfo is one entry of a ListEndpoints response.
type EndpointInfo struct {
	Address    string
	Port       uint32
	Location   string
	LoadFactor float32
}

type ListEndpointsRequest struct {
	Database string
}

type ListEndpointsResponse struct {
	Endpoints []*EndpointInfo
}

// DiscoveryServiceClient is the stand-in for the generated discovery stub.
type DiscoveryServiceClient interface {
	ListEndpoints(ctx context.Context, in *ListEndpointsRequest, opts ...grpc.CallOption) (*ListEndpointsResponse, error)
}

type discoveryServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDiscoveryServiceClient mirrors the constructor shape goctl/protoc-gen-go-grpc
// emits: a thin wrapper over a grpc.ClientConnInterface.
func NewDiscoveryServiceClient(cc grpc.ClientConnInterface) DiscoveryServiceClient {
	return &discoveryServiceClient{cc: cc}
}

func (c *discoveryServiceClient) ListEndpoints(ctx context.Context, in *ListEndpointsRequest, opts ...grpc.CallOption) (*ListEndpointsResponse, error) {
	out := new(ListEndpointsResponse)
	err := c.cc.Invoke(ctx, "/Ydb.Discovery.V1.DiscoveryService/ListEndpoints", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
