package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"doc_retrieval/embedding/mock"
	pb "doc_retrieval/embedding/rpc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func startServer(t *testing.T, svc *mock.MockService, status healthpb.HealthCheckResponse_ServingStatus) []grpc.DialOption {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	hs := Register(s, svc)
	hs.SetServingStatus(pb.ServiceName, status)
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	return []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
}

func TestClient_RoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock.NewMockService(ctrl)
	svc.EXPECT().Dimensions().Return(3).AnyTimes()
	svc.EXPECT().Get(gomock.Any(), "net income 2023").Return([]float32{0.5, -0.25, 1}, nil)

	opts := startServer(t, svc, healthpb.HealthCheckResponse_SERVING)
	client, err := NewClient(context.Background(), "passthrough:///bufnet", opts...)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 3, client.Dimensions())

	vec, err := client.Get(context.Background(), "net income 2023")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 1}, vec)
}

func TestClient_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock.NewMockService(ctrl)
	svc.EXPECT().Dimensions().Return(3).AnyTimes()
	svc.EXPECT().Get(gomock.Any(), "").Return(nil, errors.New("empty input"))

	opts := startServer(t, svc, healthpb.HealthCheckResponse_SERVING)
	client, err := NewClient(context.Background(), "passthrough:///bufnet", opts...)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Get(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty input")
}

func TestServer_PlainProtobufCaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock.NewMockService(ctrl)
	svc.EXPECT().Dimensions().Return(2).AnyTimes()
	svc.EXPECT().Get(gomock.Any(), "hello").Return([]float32{0.5, -1}, nil)
	svc.EXPECT().Get(gomock.Any(), "boom").Return(nil, errors.New("model crashed"))

	opts := startServer(t, svc, healthpb.HealthCheckResponse_SERVING)
	conn, err := grpc.NewClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	defer conn.Close()
	ctx := context.Background()

	out := new(structpb.ListValue)
	require.NoError(t, conn.Invoke(ctx, pb.GetEmbeddingFullMethod, wrapperspb.String("hello"), out))
	require.Len(t, out.GetValues(), 2)
	assert.Equal(t, 0.5, out.GetValues()[0].GetNumberValue())
	assert.Equal(t, -1.0, out.GetValues()[1].GetNumberValue())

	dims := new(wrapperspb.Int32Value)
	require.NoError(t, conn.Invoke(ctx, pb.GetDimensionsFullMethod, &emptypb.Empty{}, dims))
	assert.EqualValues(t, 2, dims.GetValue())

	err = conn.Invoke(ctx, pb.GetEmbeddingFullMethod, wrapperspb.String("boom"), new(structpb.ListValue))
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "model crashed")
}

func TestDecodeEmbedding_RejectsNonNumbers(t *testing.T) {
	list, err := structpb.NewList([]any{0.5, "x"})
	require.NoError(t, err)
	_, err = pb.DecodeEmbedding(list)
	assert.Error(t, err)

	vec, err := pb.DecodeEmbedding(pb.EncodeEmbedding([]float32{0.25, 2}))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 2}, vec)
}

func TestNewClient_NotServing(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock.NewMockService(ctrl)

	opts := startServer(t, svc, healthpb.HealthCheckResponse_NOT_SERVING)
	_, err := NewClient(context.Background(), "passthrough:///bufnet", opts...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_SERVING")
}
