// Package interceptor attaches the session bearer token to outgoing gRPC
// calls made by back office consumers.
package interceptor

import (
	"context"
	"log/slog"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/dtroode/electrobill-session/internal/logger"
	"github.com/dtroode/electrobill-session/internal/model"
)

const authorizationKey = "authorization"

func withBearer(ctx context.Context, src model.TokenSource) context.Context {
	token := src.Token()
	if token == "" {
		return ctx
	}
	if md, ok := metadata.FromOutgoingContext(ctx); ok && len(md.Get(authorizationKey)) > 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, authorizationKey, "Bearer "+token)
}

// UnaryClientInterceptor adds "authorization: Bearer <token>" to outgoing
// metadata while src holds a token. Calls that already carry an
// authorization entry are left alone.
func UnaryClientInterceptor(src model.TokenSource) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(withBearer(ctx, src), method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor is the streaming counterpart of UnaryClientInterceptor.
func StreamClientInterceptor(src model.TokenSource) grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		return streamer(withBearer(ctx, src), desc, cc, method, opts...)
	}
}

// Logger adapts the application logger to go-grpc-middleware logging.
func Logger(l *logger.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		l.Log(ctx, slog.Level(lvl), "gRPC client: "+msg, fields...)
	})
}

// DialOptions returns the interceptor chain for a back office connection:
// call logging first, then the bearer token.
func DialOptions(src model.TokenSource, l *logger.Logger) []grpc.DialOption {
	logOpts := []logging.Option{
		logging.WithLogOnEvents(logging.FinishCall),
	}
	return []grpc.DialOption{
		grpc.WithChainUnaryInterceptor(
			logging.UnaryClientInterceptor(Logger(l), logOpts...),
			UnaryClientInterceptor(src),
		),
		grpc.WithChainStreamInterceptor(
			logging.StreamClientInterceptor(Logger(l), logOpts...),
			StreamClientInterceptor(src),
		),
	}
}
