package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dtroode/electrobill-session/internal/api/http/devauth"
	"github.com/dtroode/electrobill-session/internal/session"
	"github.com/dtroode/electrobill-session/internal/token"
)

// ErrNotPermitted is returned by "can" when none of the permissions is held.
var ErrNotPermitted = errors.New("none of the permissions is granted")

const shutdownTimeout = 10 * time.Second

// NewRootCommand builds the command tree around app. The caller closes app
// once the command returns.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "electrobill",
		Short:         "Manage the ElectroBill back office session",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCommand(app),
		newLogoutCommand(app),
		newStatusCommand(app),
		newCanCommand(app),
		newCheckGRPCCommand(app),
		newServeDevAuthCommand(app),
	)

	return root
}

func newLoginCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Long: `Authenticate against the ElectroBill backend and persist the session.

Examples:
  electrobill login --email admin@electrobill.local --password admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			a, err := app.Session(cmd.Context())
			if err != nil {
				return err
			}

			outcome := a.Login(cmd.Context(), email, password)
			if !outcome.Success {
				return errors.New(outcome.Error)
			}

			user := a.User()
			printf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.DisplayName(), user.Role)
			return nil
		},
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")

	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Session(cmd.Context())
			if err != nil {
				return err
			}
			a.Logout(cmd.Context())
			printf(cmd.OutOrStdout(), "Logged out.\n")
			return nil
		},
	}
}

func newStatusCommand(app *App) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show who is logged in",
		Long: `With --verify the stored token is sent to the backend, which must
confirm it still belongs to the logged in user.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Session(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			snap := a.Snapshot()
			if session.Decide(snap) != session.DecisionRender {
				printf(out, "Not logged in.\n")
				printf(out, "Use 'electrobill login' to authenticate.\n")
				return nil
			}

			user := snap.User
			printf(out, "Logged in\n")
			printf(out, "User ID:     %s\n", user.ID)
			printf(out, "Name:        %s\n", user.DisplayName())
			printf(out, "Email:       %s\n", user.Email)
			printf(out, "Role:        %s\n", user.Role)
			printf(out, "Permissions: %s\n", strings.Join(user.Permissions, ", "))

			claims, err := token.Inspect(snap.Token)
			switch {
			case err != nil:
				printf(out, "Token:       opaque\n")
			case claims.ExpiresAt.IsZero():
				printf(out, "Token:       no expiry\n")
			default:
				printf(out, "Token:       expires %s\n", claims.ExpiresAt.Format(time.RFC3339))
			}

			if !verify {
				return nil
			}
			remote, err := app.Verifier().Verify(cmd.Context(), a)
			if err != nil {
				return fmt.Errorf("backend rejected the session token: %w", err)
			}
			if remote.ID != user.ID {
				return fmt.Errorf("backend says the token belongs to %s, not %s", remote.ID, user.ID)
			}
			printf(out, "Backend:     verified\n")
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "confirm the token with the backend")

	return cmd
}

func newCanCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "can PERMISSION...",
		Short: "Check whether the current user holds any of the permissions",
		Long: `Exits with status 1 when none of the permissions is held.

Examples:
  electrobill can USERS_READ
  electrobill can INVOICES_CREATE PAYMENTS_CREATE`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Session(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range args {
				mark := "no"
				if a.HasPermission(p) {
					mark = "yes"
				}
				printf(out, "%s: %s\n", p, mark)
			}

			if !a.HasAnyPermission(args...) {
				return ErrNotPermitted
			}
			return nil
		},
	}
}

func newServeDevAuthCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-dev-auth",
		Short: "Run a local authentication endpoint for development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg.DevAuth
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Addr = addr
			}

			srv, sl, err := devauth.NewServer(cfg, app.Metrics(), app.logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				app.logger.Info("Starting dev auth server", "address", srv.Address())
				errCh <- srv.Start(sl)
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}
			app.logger.Info("received interruption signal, shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				app.logger.Error("error during server shutdown", "error", err, "address", srv.Address())
			}
			if err := <-errCh; err != nil {
				return fmt.Errorf("dev auth server: %w", err)
			}

			app.logger.Info("shutdown complete")
			return nil
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides DEVAUTH_ADDR)")

	return cmd
}
