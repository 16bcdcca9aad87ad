package handler

import (
	"net/http"

	"github.com/Payphone-Digital/account-service/internal/constants"
	"github.com/Payphone-Digital/account-service/internal/dto"
	"github.com/Payphone-Digital/account-service/internal/middleware"
	"github.com/Payphone-Digital/account-service/internal/service"
	ctxutil "github.com/Payphone-Digital/account-service/pkg/context"
	"github.com/Payphone-Digital/account-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid login request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, nil))
		return
	}

	response, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout ends the session of the bearer token, or of the token in the body
// when no Authorization header is sent.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Logout")

	token, ok := middleware.BearerToken(c)
	if !ok {
		var req dto.LogoutRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.Token
		}
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgTokenRequired, nil))
		return
	}

	if err := h.authService.Logout(ctx, token); err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgLoggedOut))
}
