package cli

import (
	"context"
	"net"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/dtroode/electrobill-session/internal/mocks"
	"github.com/dtroode/electrobill-session/internal/model"
	"github.com/dtroode/electrobill-session/internal/store/memory"
)

// startHealthServer serves grpc.health.v1 to callers presenting "Bearer want".
func startHealthServer(t *testing.T, want string) (string, *health.Server) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

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

	hs := health.NewServer()
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(auth.UnaryServerInterceptor(authFunc)))
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return lis.Addr().String(), hs
}

func loggedInApp(t *testing.T, token string) *App {
	t.Helper()
	store := memory.New()
	auth := &mocks.Authenticator{}
	auth.On("Authenticate", mock.Anything, mock.Anything).
		Return(model.AuthResult{Token: token, User: cashier}, nil)

	_, err := run(t, newTestApp(store, auth), "login", "--email", cashier.Email, "--password", "pw")
	require.NoError(t, err)

	return newTestApp(store, auth)
}

func TestCheckGRPC(t *testing.T) {
	addr, hs := startHealthServer(t, "tok1")
	hs.SetServingStatus("billing", healthpb.HealthCheckResponse_NOT_SERVING)

	out, err := run(t, loggedInApp(t, "tok1"), "check-grpc", addr)
	require.NoError(t, err)
	assert.Equal(t, "SERVING\n", out)

	out, err = run(t, loggedInApp(t, "tok1"), "check-grpc", addr, "--service", "billing")
	require.Error(t, err)
	assert.Equal(t, "NOT_SERVING\n", out)
	assert.Contains(t, err.Error(), `service "billing" is NOT_SERVING`)
}

func TestCheckGRPC_TokenRequired(t *testing.T) {
	addr, _ := startHealthServer(t, "tok1")

	tests := []struct {
		name string
		app  func(t *testing.T) *App
	}{
		{name: "logged out", app: func(t *testing.T) *App {
			return newTestApp(memory.New(), &mocks.Authenticator{})
		}},
		{name: "other token", app: func(t *testing.T) *App {
			return loggedInApp(t, "tok2")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.app(t), "check-grpc", addr)
			require.Error(t, err)
			assert.Equal(t, codes.Unauthenticated, status.Code(err))
		})
	}
}
