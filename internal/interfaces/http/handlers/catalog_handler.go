// Package handlers contains the HTTP handlers for the risk engine API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrovia/riskengine/internal/application/dto"
	"github.com/agrovia/riskengine/internal/application/service"
	"github.com/agrovia/riskengine/pkg/errors"
)

// CatalogHandler serves the risk catalog: registration, updates and lookups.
// The catalog is platform-wide, not tenant-scoped.
type CatalogHandler struct {
	catalog service.CatalogAppService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog service.CatalogAppService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Register handles POST /api/v1/risks.
func (h *CatalogHandler) Register(c *gin.Context) {
	var req dto.RegisterRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest(err.Error()))
		return
	}

	result, err := h.catalog.Register(c.Request.Context(), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusCreated, result)
}

// Update handles PUT /api/v1/risks/:code.
func (h *CatalogHandler) Update(c *gin.Context) {
	var req dto.RegisterRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest(err.Error()))
		return
	}

	result, err := h.catalog.Update(c.Request.Context(), c.Param("code"), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// Lookup handles GET /api/v1/risks/:code.
func (h *CatalogHandler) Lookup(c *gin.Context) {
	result, err := h.catalog.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// ListActive handles GET /api/v1/risks with optional domain, target_type
// and mode filters.
func (h *CatalogHandler) ListActive(c *gin.Context) {
	results, err := h.catalog.ListActive(
		c.Request.Context(),
		c.Query("domain"),
		c.Query("target_type"),
		c.Query("mode"),
	)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"risks": results, "count": len(results)})
}
