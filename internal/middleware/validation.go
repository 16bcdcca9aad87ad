package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Payphone-Digital/account-service/internal/constants"
	"github.com/Payphone-Digital/account-service/pkg/logger"
	"github.com/Payphone-Digital/account-service/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ValidationMiddleware struct {
	validate *validator.Validate
}

func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{validate: validation.New()}
}

// ValidateRequestBody decodes the body into factory() and checks its binding
// rules. The body is restored so the handler can bind it again.
func (m *ValidationMiddleware) ValidateRequestBody(factory func() interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(c.Request.Body)
			if err != nil {
				logger.GetLogger().Error("Middleware: Failed to read request body",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
				c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, nil))
				return
			}
		}

		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		request := factory()
		if err := json.Unmarshal(bodyBytes, request); err != nil {
			logger.GetLogger().Debug("Middleware: JSON unmarshaling failed",
				zap.String("path", c.Request.URL.Path),
				zap.Int("body_size", len(bodyBytes)),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, nil))
			return
		}

		if err := m.validate.Struct(request); err != nil {
			details := validation.Messages(err)

			logger.GetLogger().Debug("Middleware: Request validation failed",
				zap.String("path", c.Request.URL.Path),
				zap.Int("error_count", len(details)),
			)

			c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgValidationFailed, details))
			return
		}

		c.Next()
	}
}
