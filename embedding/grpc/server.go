package grpc

import (
	"context"
	"log/slog"

	"doc_retrieval/embedding"
	pb "doc_retrieval/embedding/rpc"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Server struct {
	embeddingService embedding.Service
}

func NewServer(embeddingService embedding.Service) *Server {
	return &Server{
		embeddingService: embeddingService,
	}
}

func (s *Server) GetEmbedding(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	embedding, err := s.embeddingService.Get(ctx, req.GetValue())
	if err != nil {
		slog.Error("fail to embed text", "error", err)
		if ctx.Err() != nil {
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		return nil, status.Errorf(codes.Internal, "fail to embed text: %v", err)
	}
	return pb.EncodeEmbedding(embedding), nil
}

func (s *Server) GetDimensions(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int32Value, error) {
	return wrapperspb.Int32(int32(s.embeddingService.Dimensions())), nil
}

// Register mounts the embedding service and a health service reporting it as serving.
func Register(s *grpc.Server, embeddingService embedding.Service) *health.Server {
	pb.RegisterEmbeddingServiceServer(s, NewServer(embeddingService))

	hs := health.NewServer()
	hs.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}
