package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/Payphone-Digital/account-service/config"
	"github.com/Payphone-Digital/account-service/internal/constants"
	"github.com/Payphone-Digital/account-service/internal/handler"
	"github.com/Payphone-Digital/account-service/internal/middleware"
	"github.com/Payphone-Digital/account-service/internal/repository"
	"github.com/Payphone-Digital/account-service/internal/router"
	"github.com/Payphone-Digital/account-service/internal/service"
	"github.com/Payphone-Digital/account-service/pkg/cache"
	"github.com/Payphone-Digital/account-service/pkg/database"
	"github.com/Payphone-Digital/account-service/pkg/logger"
	"github.com/Payphone-Digital/account-service/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	if config.App.Environment == constants.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("db_driver", config.Database.Driver),
		zap.String("version", constants.AppVersion),
	)

	db, err := database.Open(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	if config.Database.Seed {
		if err := database.Seed(db, config.Auth.BcryptCost); err != nil {
			logger.GetLogger().Error("Failed to seed database", zap.Error(err))
		} else {
			logger.GetLogger().Info("Database seeded successfully")
		}
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Session cache: redis when enabled and reachable, process memory otherwise
	var sessionCache service.SessionCache
	var redisPinger handler.Pinger
	if config.Redis.Enabled {
		redisClient, err := redis.NewClient(config)
		if err != nil {
			logger.GetLogger().Warn("Redis unavailable, using in-process session cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			sessionCache = service.NewRedisSessionCache(redisClient)
			redisPinger = redisClient
		}
	}
	if sessionCache == nil {
		local := cache.NewCache()
		defer local.Stop()
		sessionCache = service.NewLocalSessionCache(local)
	}

	// Services
	hasher := service.NewBcryptHasher(config.Auth.BcryptCost)
	tokenService := service.NewTokenService(config.Auth.Secret)
	authService := service.NewAuthService(userRepo, sessionRepo, tokenService, hasher, sessionCache, config.Auth.SessionTTL)
	userService := service.NewUserService(userRepo, hasher)

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	authHandler := handler.NewAuthHandler(authService)
	healthHandler := handler.NewHealthHandler(db, redisPinger)

	r := router.NewRouter(
		userHandler,
		authHandler,
		healthHandler,

		middleware.NewValidationMiddleware(),
		middleware.NewAuthMiddleware(authService),
		config,
	).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), config.App.Timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.GetLogger().Error("Server forced to shutdown", zap.Error(err))
	}
}
