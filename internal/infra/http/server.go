package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldstock/partsdesk/internal/engine"
)

type Server struct {
	srv *http.Server
}

func New(addr string, eng *engine.Engine, log *slog.Logger, exposeMetrics bool) *Server {
	h := &handlers{eng: eng, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if exposeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(h.requireEngineer)

		r.Post("/requests", h.createRequest)
		r.Get("/requests", h.listRequests)
		r.Get("/requests/{id}", h.getRequest)
		r.Put("/requests/{id}", h.editRequest)
		r.Delete("/requests/{id}", h.cancelRequest)
		r.Post("/requests/{id}/confirm", h.confirmReceipt)

		r.Post("/usage-reports", h.submitUsageReport)
		r.Get("/usage-reports", h.listUsageReports)

		r.Get("/stock", h.listStock)
		r.Put("/stock/min", h.setMinStock)
		r.Get("/stock/adjustments", h.listAdjustments)

		r.Get("/parts", h.listParts)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/requests/{id}/status", h.reviewerTransition)
			r.Post("/parts", h.registerPart)
			r.Delete("/requests/cancelled", h.purgeCancelled)
			r.Get("/export/adjustments.xlsx", h.exportAdjustments)
			r.Get("/export/usage.xlsx", h.exportUsage)
		})
	})

	return &Server{srv: &http.Server{Addr: addr, Handler: r}}
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
