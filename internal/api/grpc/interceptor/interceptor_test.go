package interceptor

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dtroode/electrobill-session/internal/logger"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func captureUnary(t *testing.T, ctx context.Context, src staticToken) metadata.MD {
	t.Helper()
	var got metadata.MD
	invoker := func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		got, _ = metadata.FromOutgoingContext(ctx)
		return nil
	}
	err := UnaryClientInterceptor(src)(ctx, "/svc/Method", nil, nil, nil, invoker)
	require.NoError(t, err)
	return got
}

func TestUnaryClientInterceptor(t *testing.T) {
	md := captureUnary(t, context.Background(), "tok1")
	assert.Equal(t, []string{"Bearer tok1"}, md.Get("authorization"))
}

func TestUnaryClientInterceptor_NoToken(t *testing.T) {
	md := captureUnary(t, context.Background(), "")
	assert.Empty(t, md.Get("authorization"))
}

func TestUnaryClientInterceptor_KeepsExplicitAuthorization(t *testing.T) {
	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer service-token")

	md := captureUnary(t, ctx, "tok1")
	assert.Equal(t, []string{"Bearer service-token"}, md.Get("authorization"))
}

func TestStreamClientInterceptor(t *testing.T) {
	var got metadata.MD
	streamer := func(ctx context.Context, _ *grpc.StreamDesc, _ *grpc.ClientConn, _ string, _ ...grpc.CallOption) (grpc.ClientStream, error) {
		got, _ = metadata.FromOutgoingContext(ctx)
		return nil, nil
	}

	_, err := StreamClientInterceptor(staticToken("tok1"))(context.Background(), &grpc.StreamDesc{}, nil, "/svc/Stream", streamer)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer tok1"}, got.Get("authorization"))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// startHealthServer runs a health service that only answers callers
// presenting "Bearer want".
func startHealthServer(t *testing.T, want string) *bufconn.Listener {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	authFunc := func(ctx context.Context) (context.Context, error) {
		token, err := auth.AuthFromMD(ctx, "bearer")
		if err != nil {
			return nil, err
		}
		if token != want {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return ctx, nil
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(auth.UnaryServerInterceptor(authFunc)))
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return lis
}

func dial(t *testing.T, lis *bufconn.Listener, src staticToken, l *logger.Logger) healthpb.HealthClient {
	t.Helper()
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	}, DialOptions(src, l)...)

	conn, err := grpc.NewClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return healthpb.NewHealthClient(conn)
}

func TestDialOptions_AuthenticatedCall(t *testing.T) {
	lis := startHealthServer(t, "tok1")
	out := &syncBuffer{}
	client := dial(t, lis, "tok1", logger.NewWithWriter(out, -4))

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	assert.Contains(t, out.String(), "gRPC client:")
	assert.Contains(t, out.String(), "Check")
}

func TestDialOptions_LoggedOut(t *testing.T) {
	lis := startHealthServer(t, "tok1")
	client := dial(t, lis, "", logger.NewWithWriter(&syncBuffer{}, 0))

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
