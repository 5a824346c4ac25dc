package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/application/ratelimit/usecases"
	"github.com/quotagate/quotagate/internal/domain/ratelimit"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/infrastructure/auth"
	apperrors "github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

// ContextKeySnapshot exposes the resolved subscription snapshot to
// downstream handlers.
const ContextKeySnapshot = "subscription_snapshot"

// UserIDExtractor resolves the rate-limit identity of a request. An empty
// identity or an error rejects the request with 401.
type UserIDExtractor func(c *gin.Context) (string, error)

// SkipFunc exempts a request from rate limiting entirely.
type SkipFunc func(c *gin.Context) bool

// rejectedBody is the 429 payload. Remaining fields whose limit is
// unlimited are omitted.
type rejectedBody struct {
	Success       bool             `json:"success"`
	Error         string           `json:"error"`
	Message       string           `json:"message"`
	Remaining     map[string]int64 `json:"remaining"`
	ExceededLimit string           `json:"exceededLimit"`
	Timestamp     string           `json:"timestamp"`
}

// RateLimitMiddleware admits or rejects requests against the caller's
// entitlement-derived budgets. Provider failures degrade to the fallback
// plan instead of blocking traffic.
type RateLimitMiddleware struct {
	engine     *usecases.CheckAndIncrementUseCase
	provider   subscription.Provider
	limits     *ratelimit.LimitsConfig
	extractor  UserIDExtractor
	shouldSkip SkipFunc
	logger     logger.Interface
}

// Option customizes the middleware beyond its required collaborators.
type Option func(*RateLimitMiddleware)

// WithUserIDExtractor replaces the default bearer-token extractor.
func WithUserIDExtractor(extractor UserIDExtractor) Option {
	return func(m *RateLimitMiddleware) {
		m.extractor = extractor
	}
}

// WithSkipFunc installs a bypass predicate, typically for admin traffic
// or health endpoints.
func WithSkipFunc(skip SkipFunc) Option {
	return func(m *RateLimitMiddleware) {
		m.shouldSkip = skip
	}
}

func NewRateLimitMiddleware(
	engine *usecases.CheckAndIncrementUseCase,
	provider subscription.Provider,
	limits *ratelimit.LimitsConfig,
	jwtService *auth.JWTService,
	logger logger.Interface,
	opts ...Option,
) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		engine:    engine,
		provider:  provider,
		limits:    limits,
		extractor: JWTSubjectExtractor(jwtService),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// JWTSubjectExtractor reads the bearer token from the Authorization
// header and uses its subject claim as the rate-limit identity.
func JWTSubjectExtractor(jwtService *auth.JWTService) UserIDExtractor {
	return func(c *gin.Context) (string, error) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			return "", fmt.Errorf("missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", fmt.Errorf("invalid authorization header format")
		}

		return jwtService.VerifySubject(parts[1])
	}
}

// Handle runs the admission check for each request.
func (m *RateLimitMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.shouldSkip != nil && m.shouldSkip(c) {
			c.Next()
			return
		}

		userID, err := m.extractor(c)
		if err != nil || userID == "" {
			m.logger.Debugw("failed to extract user identity", "error", err)
			utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("invalid or missing credentials"))
			c.Abort()
			return
		}
		c.Set("user_id", userID)

		snapshot := m.lookupSnapshot(c, userID)
		c.Set(ContextKeySnapshot, snapshot)

		decision, err := m.engine.Execute(c.Request.Context(), usecases.CheckCommand{
			UserID:                userID,
			Limits:                m.limits.Resolve(snapshot.Entitlements()),
			SubscriptionStartedAt: snapshot.StartedAt(),
		})
		if err != nil {
			_ = c.Error(err)
			utils.ErrorResponseWithError(c, apperrors.NewInternalError("failed to check rate limit"))
			c.Abort()
			return
		}

		setRemainingHeaders(c, decision.Remaining)

		if !decision.Allowed {
			c.JSON(http.StatusTooManyRequests, rejectedResponse(decision))
			c.Abort()
			return
		}

		c.Next()
	}
}

// lookupSnapshot degrades to the fallback plan when the provider is
// unreachable; limiting must not depend on provider availability.
func (m *RateLimitMiddleware) lookupSnapshot(c *gin.Context, userID string) *subscription.Snapshot {
	snapshot, err := m.provider.Lookup(c.Request.Context(), userID)
	if err != nil {
		m.logger.Warnw("subscription lookup failed, applying fallback plan",
			"error", err,
			"user_id", userID,
		)
		return subscription.NoneSnapshot()
	}
	return snapshot
}

func setRemainingHeaders(c *gin.Context, remaining usecases.Remaining) {
	for _, periodType := range ratelimit.PeriodTypes() {
		if value := remaining.Get(periodType); value != nil {
			c.Header("X-RateLimit-"+periodType.Title()+"-Remaining", strconv.FormatInt(*value, 10))
		}
	}
}

func rejectedResponse(decision *usecases.AdmissionDecision) rejectedBody {
	remaining := make(map[string]int64, 3)
	for _, periodType := range ratelimit.PeriodTypes() {
		if value := decision.Remaining.Get(periodType); value != nil {
			remaining[periodType.String()] = *value
		}
	}

	return rejectedBody{
		Success: false,
		Error:   "Rate limit exceeded",
		Message: fmt.Sprintf("You have exceeded your %s request limit. Please try again later or upgrade your subscription.",
			decision.ExceededLimit.String()),
		Remaining:     remaining,
		ExceededLimit: decision.ExceededLimit.String(),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
}
