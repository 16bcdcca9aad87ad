package router

import (
	"github.com/Payphone-Digital/account-service/internal/dto"
	"github.com/gin-gonic/gin"
)

func (r *Router) authRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", r.validMw.ValidateRequestBody(func() interface{} { return &dto.LoginRequest{} }), r.authHandler.Login)
	rg.POST("/logout", r.authHandler.Logout)
}
