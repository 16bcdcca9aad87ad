package middleware

import (
	"net/http"
	"strconv"

	"github.com/Payphone-Digital/account-service/internal/constants"
	"github.com/Payphone-Digital/account-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireSelf lets a caller act only on the user named by path parameter
// name, and only while holding role.
func RequireSelf(name, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthorized, nil))
			return
		}

		id, err := strconv.ParseUint(c.Param(name), 10, 64)
		if err != nil || uint(id) != identity.UserID || !identity.HasRole(role) {
			logger.GetLogger().Warn("Permission denied",
				zap.Uint("user_id", identity.UserID),
				zap.String("target", c.Param(name)),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, constants.BuildErrorResponse(constants.MsgForbidden, nil))
			return
		}

		c.Next()
	}
}
