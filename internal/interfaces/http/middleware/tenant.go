// Package middleware holds the Gin middleware for the HTTP interface.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agrovia/riskengine/internal/application/dto"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/errors"
)

// RequestID assigns a correlation ID to every request and echoes it back.
// An incoming X-Request-ID is trusted as-is so callers can correlate.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(constants.RequestIDHeader, requestID)
		c.Next()
	}
}

// TenantScope requires the X-Tenant-ID header and stores the tenant on the
// request context. Every tenant-scoped route group mounts this. The gateway
// in front of the engine authenticates the caller and sets the header; here
// it is only required to be present.
func TenantScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(constants.TenantIDHeader)
		if tenantID == "" {
			dto.SendError(c, errors.ErrInvalidRequest("missing "+constants.TenantIDHeader+" header"))
			c.Abort()
			return
		}
		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyTenantID, tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Diagnostic marks the request as a platform-diagnostic read when the
// X-Platform-Diagnostic header is set. Diagnostic reads may span tenants;
// the state store audits every such query. Only internal routes mount this,
// the gateway never forwards the header from outside.
func Diagnostic() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(constants.DiagnosticHeader) == "true" {
			ctx := context.WithValue(c.Request.Context(), constants.ContextKeyDiagnostic, true)
			c.Request = c.Request.WithContext(ctx)
		}
		if tenantID := c.GetHeader(constants.TenantIDHeader); tenantID != "" {
			ctx := context.WithValue(c.Request.Context(), constants.ContextKeyTenantID, tenantID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// TenantID returns the tenant scope stored by TenantScope.
func TenantID(c *gin.Context) string {
	if tenantID, ok := c.Request.Context().Value(constants.ContextKeyTenantID).(string); ok {
		return tenantID
	}
	return ""
}
