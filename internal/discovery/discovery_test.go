package discovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/suleymanmyradov/ydb-go-driver/internal/ydbpb"
)

type fakeDiscoveryClient struct {
	mu        sync.Mutex
	endpoints []*ydbpb.EndpointInfo
	err       error
	calls     int
}

func (f *fakeDiscoveryClient) ListEndpoints(ctx context.Context, in *ydbpb.ListEndpointsRequest, opts ...grpc.CallOption) (*ydbpb.ListEndpointsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ydbpb.ListEndpointsResponse{Endpoints: f.endpoints}, nil
}

func (f *fakeDiscoveryClient) setEndpoints(eps []*ydbpb.EndpointInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoints = eps
}

func TestServiceBecomesReadyAndPicksLeastLoaded(t *testing.T) {
	client := &fakeDiscoveryClient{endpoints: []*ydbpb.EndpointInfo{
		{Address: "a", Port: 1, LoadFactor: 0.9},
		{Address: "b", Port: 2, LoadFactor: 0.1},
	}}
	svc := New(client, Config{Database: "/local", Period: time.Hour})
	svc.Start(context.Background())
	defer svc.Destroy()

	require.True(t, svc.Ready(context.Background(), time.Second))

	ep, err := svc.GetEndpoint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b:2", ep.Key())
}

func TestGetEndpointRefreshesWhenAllPessimized(t *testing.T) {
	client := &fakeDiscoveryClient{endpoints: []*ydbpb.EndpointInfo{
		{Address: "a", Port: 1, LoadFactor: 0},
	}}
	svc := New(client, Config{Database: "/local", Period: time.Hour})
	svc.Start(context.Background())
	defer svc.Destroy()
	require.True(t, svc.Ready(context.Background(), time.Second))

	svc.Pessimize("a:1")

	before := client.calls
	_, err := svc.GetEndpoint(context.Background())
	assert.Error(t, err)
	assert.Greater(t, client.calls, before)
}

func TestEmitDiffRaisesAddedAndRemoved(t *testing.T) {
	client := &fakeDiscoveryClient{endpoints: []*ydbpb.EndpointInfo{
		{Address: "a", Port: 1},
	}}

	var mu sync.Mutex
	var events []Event
	svc := New(client, Config{
		Database: "/local",
		Period:   time.Hour,
		Listener: func(ev Event) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		},
	})
	svc.Start(context.Background())
	defer svc.Destroy()
	require.True(t, svc.Ready(context.Background(), time.Second))

	client.setEndpoints([]*ydbpb.EndpointInfo{{Address: "b", Port: 2}})
	svc.refresh(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	kinds := map[EventKind]int{}
	for _, ev := range events {
		kinds[ev.Kind]++
	}
	assert.Equal(t, 1, kinds[EventAdded])
	assert.Equal(t, 1, kinds[EventRemoved])
}

func TestDestroyFailsSubsequentGetEndpoint(t *testing.T) {
	client := &fakeDiscoveryClient{endpoints: []*ydbpb.EndpointInfo{{Address: "a", Port: 1}}}
	svc := New(client, Config{Database: "/local", Period: time.Hour})
	svc.Start(context.Background())
	require.True(t, svc.Ready(context.Background(), time.Second))

	svc.Destroy()
	svc.Destroy() // idempotent

	_, err := svc.GetEndpoint(context.Background())
	assert.Error(t, err)
}
