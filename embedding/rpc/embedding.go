// Package rpc holds the wire contract of the embedding gRPC service. Messages
// are protobuf well-known types so any protobuf gRPC client can call it:
// GetEmbedding takes the text as a StringValue and answers with the vector as
// a ListValue of numbers, GetDimensions takes Empty and answers an Int32Value.
package rpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName             = "embedding.EmbeddingService"
	GetEmbeddingFullMethod  = "/" + ServiceName + "/GetEmbedding"
	GetDimensionsFullMethod = "/" + ServiceName + "/GetDimensions"
)

var errNotNumber = errors.New("embedding value is not a number")

// EncodeEmbedding packs vector into a ListValue.
func EncodeEmbedding(vector []float32) *structpb.ListValue {
	values := make([]*structpb.Value, len(vector))
	for i, f := range vector {
		values[i] = structpb.NewNumberValue(float64(f))
	}
	return &structpb.ListValue{Values: values}
}

// DecodeEmbedding unpacks a ListValue produced by EncodeEmbedding.
func DecodeEmbedding(list *structpb.ListValue) ([]float32, error) {
	values := list.GetValues()
	vector := make([]float32, len(values))
	for i, v := range values {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("%w: index %d", errNotNumber, i)
		}
		vector[i] = float32(n.NumberValue)
	}
	return vector, nil
}

// EmbeddingServiceClient is the client API for the embedding service.
type EmbeddingServiceClient interface {
	GetEmbedding(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error)
	GetDimensions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int32Value, error)
}

type embeddingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewEmbeddingServiceClient(cc grpc.ClientConnInterface) EmbeddingServiceClient {
	return &embeddingServiceClient{cc: cc}
}

func (c *embeddingServiceClient) GetEmbedding(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, GetEmbeddingFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *embeddingServiceClient) GetDimensions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int32Value, error) {
	out := new(wrapperspb.Int32Value)
	if err := c.cc.Invoke(ctx, GetDimensionsFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbeddingServiceServer is the server API for the embedding service.
type EmbeddingServiceServer interface {
	GetEmbedding(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	GetDimensions(context.Context, *emptypb.Empty) (*wrapperspb.Int32Value, error)
}

func RegisterEmbeddingServiceServer(s grpc.ServiceRegistrar, srv EmbeddingServiceServer) {
	s.RegisterService(&EmbeddingServiceDesc, srv)
}

func getEmbeddingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EmbeddingServiceServer).GetEmbedding(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetEmbeddingFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EmbeddingServiceServer).GetEmbedding(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getDimensionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EmbeddingServiceServer).GetDimensions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetDimensionsFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EmbeddingServiceServer).GetDimensions(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// EmbeddingServiceDesc describes the embedding service for grpc.Server.RegisterService.
var EmbeddingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EmbeddingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetEmbedding", Handler: getEmbeddingHandler},
		{MethodName: "GetDimensions", Handler: getDimensionsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "embedding/rpc/embedding.go",
}
