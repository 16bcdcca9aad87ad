package middleware

import (
	"net/http"
	"strconv"

	"github.com/Payphone-Digital/account-service/internal/constants"
	"github.com/gin-gonic/gin"
)

// NumericParam requires path parameter name to be a positive integer.
func NumericParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(name)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgIDRequired, nil))
			return
		}
		if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgIDNotNumeric, nil))
			return
		}
		c.Next()
	}
}
