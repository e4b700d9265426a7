package handler

import (
	"net/http"

	"github.com/ricirt/hello-game/internal/service"
)

type StatsHandler struct {
	svc *service.SubmissionService
}

func NewStatsHandler(svc *service.SubmissionService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// GetStats handles GET /stats
//
// Always answers 200. When the database is unreachable the body is the
// fallback snapshot with database_error set.
//
// @Summary  Aggregated name statistics
// @Tags     stats
// @Produce  json
// @Success  200  {object}  domain.StatsSnapshot
// @Router   /stats [get]
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Stats(r.Context()))
}
