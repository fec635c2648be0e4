package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docproof/internal/platform/middleware"
)

// NewRouter wires all public endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(h.httpMetrics.Middleware)

	r.Route("/api/documents", func(r chi.Router) {
		r.Post("/", h.handleRegister)
		r.Post("/verify", h.handleVerify)
		r.Get("/", h.handleListDocuments)
		r.Get("/stats/overview", h.handleStats)
		r.Get("/{digest}", h.handleGetDocument)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(h.adminToken, h.logger))
		r.Post("/reconcile", h.handleReconcile)
	})

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}
