package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/service"
)

// HealthHandler reports database connectivity.
type HealthHandler struct {
	svc    *service.SubmissionService
	logger *zap.Logger
}

func NewHealthHandler(svc *service.SubmissionService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{svc: svc, logger: logger}
}

// Health handles GET /health
//
// @Summary  Database connectivity probe
// @Tags     system
// @Produce  json
// @Success  200  {object}  map[string]string
// @Failure  500  {object}  map[string]string
// @Router   /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Health(r.Context()); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}
