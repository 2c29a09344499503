package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agrovia/riskengine/internal/application/dto"
	"github.com/agrovia/riskengine/internal/application/service"
	"github.com/agrovia/riskengine/pkg/errors"
)

// WebhookHandler serves webhook endpoint registrations and the terminal
// delivery failure log.
type WebhookHandler struct {
	webhooks service.WebhookAppService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhooks service.WebhookAppService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Register handles POST /api/v1/webhooks.
func (h *WebhookHandler) Register(c *gin.Context) {
	var req dto.RegisterWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest(err.Error()))
		return
	}

	result, err := h.webhooks.Register(c.Request.Context(), tenantID(c), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusCreated, result)
}

// Update handles PUT /api/v1/webhooks/:id.
func (h *WebhookHandler) Update(c *gin.Context) {
	var req dto.RegisterWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest(err.Error()))
		return
	}

	result, err := h.webhooks.Update(c.Request.Context(), tenantID(c), c.Param("id"), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// Get handles GET /api/v1/webhooks/:id.
func (h *WebhookHandler) Get(c *gin.Context) {
	result, err := h.webhooks.Get(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// List handles GET /api/v1/webhooks.
func (h *WebhookHandler) List(c *gin.Context) {
	results, err := h.webhooks.List(c.Request.Context(), tenantID(c))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"webhooks": results, "count": len(results)})
}

// Deactivate handles DELETE /api/v1/webhooks/:id.
func (h *WebhookHandler) Deactivate(c *gin.Context) {
	if err := h.webhooks.Deactivate(c.Request.Context(), tenantID(c), c.Param("id")); err != nil {
		dto.SendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFailures handles GET /api/v1/webhooks/failures.
func (h *WebhookHandler) ListFailures(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	results, err := h.webhooks.ListFailures(c.Request.Context(), tenantID(c), limit)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"failures": results, "count": len(results)})
}
