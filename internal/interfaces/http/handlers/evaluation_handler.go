package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrovia/riskengine/internal/application/dto"
	"github.com/agrovia/riskengine/internal/application/service"
	"github.com/agrovia/riskengine/pkg/errors"
)

// EvaluationHandler serves evaluation history reads and the realtime
// ingest trigger.
type EvaluationHandler struct {
	evals service.EvaluationAppService
}

// NewEvaluationHandler creates a new EvaluationHandler.
func NewEvaluationHandler(evals service.EvaluationAppService) *EvaluationHandler {
	return &EvaluationHandler{evals: evals}
}

// History handles GET /api/v1/evaluations.
func (h *EvaluationHandler) History(c *gin.Context) {
	var q dto.EvaluationHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest(err.Error()))
		return
	}

	results, err := h.evals.History(c.Request.Context(), tenantID(c), &q)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"evaluations": results, "count": len(results)})
}

// Latest handles GET /api/v1/evaluations/latest.
func (h *EvaluationHandler) Latest(c *gin.Context) {
	entityID := c.Query("entity_id")
	riskCode := c.Query("risk_code")
	if entityID == "" || riskCode == "" {
		dto.SendError(c, errors.ErrInvalidRequest("entity_id and risk_code are required"))
		return
	}

	result, err := h.evals.Latest(c.Request.Context(), tenantID(c), entityID, riskCode)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// Ingest handles POST /internal/v1/ingest. The data pipeline calls it when
// fresh readings land; matching realtime risks are re-evaluated on a
// background worker after the 202 is written.
func (h *EvaluationHandler) Ingest(c *gin.Context) {
	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest(err.Error()))
		return
	}

	if err := h.evals.EnqueueRealtime(c.Request.Context(), tenantID(c), &req); err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusAccepted, gin.H{"status": "accepted"})
}
