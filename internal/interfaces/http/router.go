// Package http assembles the gin engine: repositories, use cases,
// middleware, and routes.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/quotagate/quotagate/internal/application/ratelimit/usecases"
	"github.com/quotagate/quotagate/internal/infrastructure/auth"
	"github.com/quotagate/quotagate/internal/infrastructure/config"
	"github.com/quotagate/quotagate/internal/infrastructure/entitlementapi"
	"github.com/quotagate/quotagate/internal/infrastructure/repository"
	"github.com/quotagate/quotagate/internal/interfaces/http/handlers"
	"github.com/quotagate/quotagate/internal/interfaces/http/middleware"
	"github.com/quotagate/quotagate/internal/interfaces/http/routes"
	"github.com/quotagate/quotagate/internal/shared/logger"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

// Router owns the gin engine and the wired dependency graph.
type Router struct {
	engine *gin.Engine
	db     *gorm.DB
	logger logger.Interface
}

// NewRouter wires the full request path from the loaded configuration.
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) (*Router, error) {
	limits, err := cfg.LimitsConfig()
	if err != nil {
		return nil, err
	}

	switch cfg.Server.Mode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	counterRepo := repository.NewRateLimitCounterRepository(db, log)
	engineUC := usecases.NewCheckAndIncrementUseCase(counterRepo, log)
	historyUC := usecases.NewGetUsageHistoryUseCase(counterRepo, log)
	provider := entitlementapi.NewClient(&cfg.Provider, log)
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret)

	rateLimitMW := middleware.NewRateLimitMiddleware(engineUC, provider, limits, jwtService, log)
	identityMW := middleware.NewIdentityMiddleware(middleware.JWTSubjectExtractor(jwtService), log)

	var ipThrottle *middleware.IPThrottle
	if cfg.IPThrottle.Enabled && redisClient != nil {
		ipThrottle = middleware.NewIPThrottle(redisClient, cfg.IPThrottle.Limit, cfg.IPThrottle.Window)
	}

	usageHandler := handlers.NewUsageHandler(engineUC, historyUC, provider, limits, log)

	engine := gin.New()
	engine.Use(middleware.Logger(log))
	engine.Use(middleware.Recovery())
	engine.Use(middleware.ErrorHandler())
	engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	engine.Use(middleware.SecurityHeaders())

	r := &Router{engine: engine, db: db, logger: log}
	engine.GET("/health", r.healthCheck)

	routes.SetupCheckRoutes(engine, &routes.CheckRouteConfig{
		RateLimitMiddleware: rateLimitMW,
		IPThrottle:          ipThrottle,
	})
	routes.SetupUsageRoutes(engine, &routes.UsageRouteConfig{
		UsageHandler:       usageHandler,
		IdentityMiddleware: identityMW,
		IPThrottle:         ipThrottle,
	})

	return r, nil
}

func (r *Router) healthCheck(c *gin.Context) {
	sqlDB, err := r.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		r.logger.Errorw("health check failed", "error", err)
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"status": "ok"})
}

// GetEngine returns the underlying gin engine.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
