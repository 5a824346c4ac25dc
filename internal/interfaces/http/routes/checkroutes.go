package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/interfaces/http/middleware"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

// CheckRouteConfig holds dependencies for the admission route.
type CheckRouteConfig struct {
	RateLimitMiddleware *middleware.RateLimitMiddleware
	IPThrottle          *middleware.IPThrottle
}

// SetupCheckRoutes configures the admission endpoint. Each call consumes
// one unit of the caller's budget; gateways in front of an upstream
// service call it once per proxied request.
func SetupCheckRoutes(engine *gin.Engine, cfg *CheckRouteConfig) {
	check := engine.Group("/api/check")
	if cfg.IPThrottle != nil {
		check.Use(cfg.IPThrottle.Limit())
	}
	check.Use(cfg.RateLimitMiddleware.Handle())
	{
		check.POST("", func(c *gin.Context) {
			utils.SuccessResponse(c, http.StatusOK, "request admitted", nil)
		})
	}
}
