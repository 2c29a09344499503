package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrovia/riskengine/internal/infrastructure/scheduler"
)

// AdminHandler exposes internal operational endpoints. These sit behind
// the /internal route group, which the platform gateway never exposes.
type AdminHandler struct {
	sweeper *scheduler.SweepScheduler
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(sweeper *scheduler.SweepScheduler) *AdminHandler {
	return &AdminHandler{sweeper: sweeper}
}

// TriggerSweep handles POST /internal/v1/sweep, forcing a batch sweep
// outside the cron schedule. Returns 409 if one is already running.
func (h *AdminHandler) TriggerSweep(c *gin.Context) {
	if !h.sweeper.TriggerNow(c.Request.Context()) {
		c.JSON(http.StatusConflict, gin.H{"status": "sweep_already_running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sweep_completed"})
}
