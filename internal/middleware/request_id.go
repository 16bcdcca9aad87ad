package middleware

import (
	"time"

	"github.com/Payphone-Digital/account-service/internal/constants"
	ctxutil "github.com/Payphone-Digital/account-service/pkg/context"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestContext stamps every request with an id, the caller address and a
// start time, and echoes the id back in X-Request-ID.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
		ctx = ctxutil.WithClient(ctx, c.ClientIP(), c.Request.UserAgent())
		ctx = ctxutil.WithStartTime(ctx, time.Now())
		c.Request = c.Request.WithContext(ctx)

		c.Header(constants.HeaderXRequestID, requestID)
		c.Next()
	}
}
