package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

// IdentityMiddleware resolves the caller identity for routes that need a
// user without consuming rate-limit budget, such as the usage endpoints.
type IdentityMiddleware struct {
	extractor UserIDExtractor
	logger    logger.Interface
}

func NewIdentityMiddleware(extractor UserIDExtractor, logger logger.Interface) *IdentityMiddleware {
	return &IdentityMiddleware{
		extractor: extractor,
		logger:    logger,
	}
}

// Require rejects requests whose identity cannot be resolved and exposes
// the user ID to downstream handlers.
func (m *IdentityMiddleware) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := m.extractor(c)
		if err != nil || userID == "" {
			m.logger.Debugw("failed to extract user identity", "error", err)
			utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("invalid or missing credentials"))
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
