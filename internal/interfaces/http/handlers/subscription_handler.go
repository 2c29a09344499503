package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrovia/riskengine/internal/application/dto"
	"github.com/agrovia/riskengine/internal/application/service"
	"github.com/agrovia/riskengine/pkg/errors"
)

// SubscriptionHandler serves tenant risk subscriptions.
type SubscriptionHandler struct {
	subs service.SubscriptionAppService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subs service.SubscriptionAppService) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs}
}

// Upsert handles PUT /api/v1/subscriptions.
func (h *SubscriptionHandler) Upsert(c *gin.Context) {
	var req dto.UpsertSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest(err.Error()))
		return
	}

	result, err := h.subs.Upsert(c.Request.Context(), tenantID(c), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// List handles GET /api/v1/subscriptions.
func (h *SubscriptionHandler) List(c *gin.Context) {
	results, err := h.subs.List(c.Request.Context(), tenantID(c))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"subscriptions": results, "count": len(results)})
}

// Delete handles DELETE /api/v1/subscriptions/:risk_code.
func (h *SubscriptionHandler) Delete(c *gin.Context) {
	if err := h.subs.Delete(c.Request.Context(), tenantID(c), c.Param("risk_code")); err != nil {
		dto.SendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
