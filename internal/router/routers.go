package router

import (
	"time"

	"github.com/Payphone-Digital/account-service/config"
	"github.com/Payphone-Digital/account-service/internal/handler"
	"github.com/Payphone-Digital/account-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	userHandler   *handler.UserHandler
	authHandler   *handler.AuthHandler
	healthHandler *handler.HealthHandler

	validMw *middleware.ValidationMiddleware
	authMw  *middleware.AuthMiddleware
	Config  *config.Config
}

func NewRouter(
	user *handler.UserHandler,
	auth *handler.AuthHandler,
	health *handler.HealthHandler,

	validMw *middleware.ValidationMiddleware,
	authMw *middleware.AuthMiddleware,
	config *config.Config,
) *Router {
	return &Router{
		userHandler:   user,
		authHandler:   auth,
		healthHandler: health,

		validMw: validMw,
		authMw:  authMw,
		Config:  config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestContext())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())

	router.GET("/health", r.healthHandler.HealthCheck)

	api := router.Group("")
	api.Use(middleware.RateLimit(r.Config.RateLimit.Request, time.Duration(r.Config.RateLimit.Duration)*time.Second))
	{
		r.authRoutes(api)
		r.userRoutes(api)
	}

	return router
}
