// Package routes wires handlers and middleware onto the gin engine.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/interfaces/http/handlers"
	"github.com/quotagate/quotagate/internal/interfaces/http/middleware"
)

// UsageRouteConfig holds dependencies for the usage routes.
type UsageRouteConfig struct {
	UsageHandler       *handlers.UsageHandler
	IdentityMiddleware *middleware.IdentityMiddleware
	IPThrottle         *middleware.IPThrottle
}

// SetupUsageRoutes configures the usage inspection routes. They require
// identity but never consume rate-limit budget.
func SetupUsageRoutes(engine *gin.Engine, cfg *UsageRouteConfig) {
	usage := engine.Group("/api/usage")
	if cfg.IPThrottle != nil {
		usage.Use(cfg.IPThrottle.Limit())
	}
	usage.Use(cfg.IdentityMiddleware.Require())
	{
		usage.GET("", cfg.UsageHandler.GetUsage)
		usage.GET("/history", cfg.UsageHandler.GetUsageHistory)
	}
}
