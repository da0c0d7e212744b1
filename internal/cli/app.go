// Package cli exposes the session authority as command line commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dtroode/electrobill-session/internal/authclient"
	"github.com/dtroode/electrobill-session/internal/config"
	"github.com/dtroode/electrobill-session/internal/logger"
	"github.com/dtroode/electrobill-session/internal/metrics"
	"github.com/dtroode/electrobill-session/internal/model"
	"github.com/dtroode/electrobill-session/internal/session"
	"github.com/dtroode/electrobill-session/internal/store"
)

// App carries what commands share. The Authority is built on first use and
// lives for the rest of the process.
type App struct {
	cfg     *config.Config
	logger  *logger.Logger
	metrics *metrics.Metrics

	store    model.Store
	auth     model.Authenticator
	verifier Verifier
	closer   func() error

	authority *session.Authority
}

// AppOption configures an App.
type AppOption func(*App)

// WithStore uses s instead of the configured backend.
func WithStore(s model.Store) AppOption {
	return func(a *App) {
		a.store = s
	}
}

// WithAuthenticator uses auth instead of the HTTP client.
func WithAuthenticator(auth model.Authenticator) AppOption {
	return func(a *App) {
		a.auth = auth
	}
}

// Verifier asks the backend who a session token belongs to.
type Verifier interface {
	Verify(ctx context.Context, src model.TokenSource) (model.User, error)
}

// WithVerifier uses v instead of the HTTP client for status --verify.
func WithVerifier(v Verifier) AppOption {
	return func(a *App) {
		a.verifier = v
	}
}

// NewApp creates an App from configuration.
func NewApp(cfg *config.Config, logger *logger.Logger, opts ...AppOption) *App {
	a := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		closer:  func() error { return nil },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Session returns the initialized Authority, building it on the first call.
func (a *App) Session(ctx context.Context) (*session.Authority, error) {
	if a.authority != nil {
		return a.authority, nil
	}

	policy, err := session.ParseLoginPolicy(a.cfg.Session.LoginPolicy)
	if err != nil {
		return nil, err
	}

	if a.store == nil {
		s, closer, err := store.Open(ctx, a.cfg)
		if err != nil {
			return nil, err
		}
		a.store = s
		a.closer = closer
	}
	if a.auth == nil || a.verifier == nil {
		client := authclient.NewClient(a.cfg.API.BaseURL, a.cfg.API.Timeout, a.logger)
		if a.auth == nil {
			a.auth = client
		}
		if a.verifier == nil {
			a.verifier = client
		}
	}

	a.authority = session.New(a.store, a.auth, a.logger,
		session.WithLoginPolicy(policy),
		session.WithMetrics(a.metrics),
	)
	a.authority.Initialize(ctx)

	return a.authority, nil
}

// Verifier returns the backend token check. Valid after Session.
func (a *App) Verifier() Verifier {
	return a.verifier
}

// Metrics returns the registry shared by the session and the dev endpoint.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Close flushes the metrics textfile, if configured, and releases the store.
func (a *App) Close() error {
	var errs []error
	if a.cfg.MetricsTextfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.closer(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	return errors.Join(errs...)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
