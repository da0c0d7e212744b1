package cli

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/electrobill-session/internal/api/grpc/interceptor"
)

func newCheckGRPCCommand(app *App) *cobra.Command {
	var (
		service string
		useTLS  bool
	)

	cmd := &cobra.Command{
		Use:   "check-grpc ADDRESS",
		Short: "Call a back office gRPC health service with the session token",
		Long: `Runs grpc.health.v1.Health/Check against ADDRESS. The bearer token of
the current session is attached, so servers that authenticate health
checks answer only while logged in.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Session(cmd.Context())
			if err != nil {
				return err
			}

			creds := insecure.NewCredentials()
			if useTLS {
				creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
			}
			opts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)},
				interceptor.DialOptions(a, app.logger)...)

			conn, err := grpc.NewClient(args[0], opts...)
			if err != nil {
				return fmt.Errorf("failed to create gRPC client: %w", err)
			}
			defer conn.Close()

			ctx := cmd.Context()
			if app.cfg.API.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, app.cfg.API.Timeout)
				defer cancel()
			}

			resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			printf(cmd.OutOrStdout(), "%s\n", resp.GetStatus())
			if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("service %q is %s", service, resp.GetStatus())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "service name to check (empty checks the whole server)")
	cmd.Flags().BoolVar(&useTLS, "tls", false, "connect over TLS")

	return cmd
}
