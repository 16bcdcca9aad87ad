package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Payphone-Digital/account-service/internal/constants"
	"github.com/Payphone-Digital/account-service/internal/dto"
	apperrors "github.com/Payphone-Digital/account-service/internal/errors"
	ctxutil "github.com/Payphone-Digital/account-service/pkg/context"
	"github.com/Payphone-Digital/account-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenValidator resolves a session token to its identity.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*dto.Identity, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// header. ok is false when the header is absent or malformed.
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader(constants.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], constants.BearerScheme) {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// RequireAuth rejects requests without a live session token and stores the
// caller identity on the gin and request contexts.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			logger.GetLogger().Warn("Missing or malformed Authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			c.AbortWithStatusJSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthorized, nil))
			return
		}

		identity, err := m.validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			status := apperrors.ToHTTPStatus(err)
			logger.GetLogger().Warn("Token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Int("status", status),
				zap.Error(err))
			c.AbortWithStatusJSON(status, constants.BuildErrorResponse(apperrors.PublicMessage(err), nil))
			return
		}

		c.Set(constants.GinKeyIdentity, identity)
		c.Set(constants.GinKeyUserID, identity.UserID)
		c.Set(constants.GinKeyToken, token)
		c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), identity.UserID))

		c.Next()
	}
}

// IdentityFrom returns the identity stored by RequireAuth.
func IdentityFrom(c *gin.Context) (*dto.Identity, bool) {
	v, ok := c.Get(constants.GinKeyIdentity)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*dto.Identity)
	return identity, ok
}
