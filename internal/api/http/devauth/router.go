package devauth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/electrobill-session/internal/logger"
)

const (
	// LoginPath is where the endpoint accepts credentials.
	LoginPath = "/api/auth/login"
	// MePath returns the account behind a bearer token.
	MePath = "/api/auth/me"
)

// NewRouter mounts the auth handlers, a health check and, when gatherer is
// not nil, the Prometheus scrape endpoint.
func NewRouter(h *Handler, gatherer prometheus.Gatherer, logger *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Post(LoginPath, h.Login)
	r.Get(MePath, h.Me)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
