// Package web serves the player-facing pages: the name form, the /play
// submission endpoint and the stats page.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apimw "github.com/ricirt/hello-game/internal/api/middleware"
)

// NewRouter wires the frontend chi router with the same middleware chain
// as the backend API.
func NewRouter(h *Handler, reg prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestSize(1 << 16))
	r.Use(apimw.CorrelationID)
	r.Use(apimw.RequestLogger(logger))

	r.Get("/", h.Index)
	r.Post("/play", h.Play)
	r.Get("/stats", h.Stats)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return r
}
