package httptransport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"adminauth/internal/platform/metrics"
	"adminauth/internal/platform/middleware"
)

// HealthCheck names one backend dependency probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewRouter assembles the full middleware chain and mounts all routes. A nil
// Metrics disables latency observation.
func NewRouter(h *Handler, logger *slog.Logger, m *metrics.Metrics, checks ...HealthCheck) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.CORS)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m.ObserveRequest))

	h.Register(r)

	r.Get("/healthz", handleHealth(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// handleHealth pings all configured backends concurrently; the first failure
// fails the probe.
func handleHealth(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)
		for _, hc := range checks {
			g.Go(func() error {
				if err := hc.Check(ctx); err != nil {
					// Name the failing dependency without leaking its error.
					return fmt.Errorf("%s unavailable", hc.Name)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
