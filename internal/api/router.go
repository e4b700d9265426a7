package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/api/handler"
	apimw "github.com/ricirt/hello-game/internal/api/middleware"
	"github.com/ricirt/hello-game/internal/service"
)

// NewRouter wires the backend chi router, attaches all middleware, and
// registers every route. It is the single source of truth for the API surface.
func NewRouter(
	svc *service.SubmissionService,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)            // recover panics, return 500
	r.Use(chimw.RealIP)               // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 16)) // names are short; 64 KB is plenty
	r.Use(apimw.CorrelationID)
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	sh := handler.NewStatsHandler(svc)
	subh := handler.NewSubmissionHandler(svc, logger)
	hh := handler.NewHealthHandler(svc, logger)

	// --- routes ---
	r.Get("/health", hh.Health)
	r.Get("/stats", sh.GetStats)
	r.Post("/submit", subh.Submit)

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return r
}
