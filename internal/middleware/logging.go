package middleware

import (
	"net/http"
	"time"

	"github.com/Payphone-Digital/account-service/internal/constants"
	ctxutil "github.com/Payphone-Digital/account-service/pkg/context"
	"github.com/Payphone-Digital/account-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

const slowRequestThreshold = 2 * time.Second

// RequestLogger writes one structured line per request, with the level
// chosen from the response status.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		ctx := c.Request.Context()
		latency := ctxutil.GetDuration(ctx)
		if latency == 0 {
			latency = time.Since(start)
		}
		status := c.Writer.Status()

		var b *logger.ContextLogBuilder
		switch {
		case status >= http.StatusInternalServerError:
			b = logger.ErrorWithContext(ctx, "Server error")
		case status >= http.StatusBadRequest:
			b = logger.WarnWithContext(ctx, "Client error")
		case latency > slowRequestThreshold:
			b = logger.WarnWithContext(ctx, "Slow request")
		default:
			b = logger.InfoWithContext(ctx, "Request completed")
		}

		b.String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			String("query", c.Request.URL.RawQuery).
			String("user_agent", ctxutil.GetUserAgent(ctx)).
			Int("status_code", status).
			Int("response_size", c.Writer.Size()).
			Duration(latency).
			Log()

		if len(c.Errors) > 0 {
			logger.ErrorWithContext(ctx, "Request error").
				String("error", c.Errors.String()).
				Log()
		}
	}
}

// Recovery turns a panic into a 500 with the generic message.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.LogPanic(recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, constants.BuildErrorResponse(constants.MsgInternalError, nil))
	})
}
