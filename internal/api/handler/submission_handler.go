package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	apimw "github.com/ricirt/hello-game/internal/api/middleware"
	"github.com/ricirt/hello-game/internal/domain"
	"github.com/ricirt/hello-game/internal/service"
)

// submitSchema requires a JSON object with a string "name". Blank names pass
// the schema and are rejected by the service.
var submitSchema = mustSchema(`{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"}
	}
}`)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(err)
	}
	return schema
}

type submitRequest struct {
	Name string `json:"name"`
}

type submitResponse struct {
	Status     string             `json:"status"`
	Message    string             `json:"message"`
	Submission *domain.Submission `json:"submission"`
}

// SubmissionHandler stores names submitted directly to the API.
type SubmissionHandler struct {
	svc    *service.SubmissionService
	logger *zap.Logger
}

func NewSubmissionHandler(svc *service.SubmissionService, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, logger: logger}
}

// Submit handles POST /submit
//
// @Summary  Store a name synchronously
// @Tags     submissions
// @Accept   json
// @Produce  json
// @Param    body  body      submitRequest  true  "Name payload"
// @Success  201   {object}  submitResponse
// @Failure  400   {object}  map[string]string
// @Failure  500   {object}  map[string]string
// @Router   /submit [post]
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}

	result, err := submitSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil || !result.Valid() {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}

	var req submitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}

	sub, err := h.svc.Submit(r.Context(), req.Name)
	if err != nil {
		if !domain.IsValidation(err) {
			h.logger.Error("submit failed",
				zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
				zap.Error(err),
			)
		}
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, submitResponse{
		Status:     "success",
		Message:    "Name '" + sub.Name + "' submitted successfully",
		Submission: sub,
	})
}
