package dto

import (
	"github.com/gin-gonic/gin"

	"github.com/agrovia/riskengine/pkg/errors"
)

// SendSuccess writes a JSON success response.
func SendSuccess(c *gin.Context, status int, body interface{}) {
	c.JSON(status, body)
}

// SendError writes a JSON error response with the status carried by the
// error. Unknown error types map to a generic 500 without leaking details.
func SendError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatusOf(err), errors.ToErrorResponse(err))
}
