package grpc

import (
	"context"
	"fmt"

	pb "doc_retrieval/embedding/rpc"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client implements embedding.Service against a remote embedding gRPC service
type Client struct {
	conn       *grpc.ClientConn
	client     pb.EmbeddingServiceClient
	dimensions int
}

// NewClient connects to the embedding service at address. The service must
// report SERVING on the health endpoint before the client is returned.
func NewClient(ctx context.Context, address string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to embedding service: %w", err)
	}

	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: pb.ServiceName})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("embedding service health check failed: %w", err)
	}
	if health.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		conn.Close()
		return nil, fmt.Errorf("embedding service is %s", health.GetStatus())
	}

	c := &Client{
		conn:   conn,
		client: pb.NewEmbeddingServiceClient(conn),
	}
	dims, err := c.client.GetDimensions(ctx, &emptypb.Empty{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get embedding dimensions: %w", err)
	}
	c.dimensions = int(dims.GetValue())
	return c, nil
}

func (c *Client) Get(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.GetEmbedding(ctx, wrapperspb.String(text))
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}

	embedding, err := pb.DecodeEmbedding(resp)
	if err != nil {
		return nil, fmt.Errorf("invalid embedding from service: %w", err)
	}
	return embedding, nil
}

func (c *Client) Dimensions() int {
	return c.dimensions
}

func (c *Client) Close() error {
	return c.conn.Close()
}
