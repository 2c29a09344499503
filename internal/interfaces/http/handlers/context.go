package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/agrovia/riskengine/pkg/constants"
)

// tenantID reads the tenant scope the middleware stored on the request
// context. Empty only on routes mounted without the tenant middleware.
func tenantID(c *gin.Context) string {
	if id, ok := c.Request.Context().Value(constants.ContextKeyTenantID).(string); ok {
		return id
	}
	return ""
}
