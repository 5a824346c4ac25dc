package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/application/ratelimit/usecases"
	"github.com/quotagate/quotagate/internal/domain/ratelimit"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	apperrors "github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

// periodUsage is one period's budget in the usage response. A nil limit
// means unlimited; remaining is absent in that case.
type periodUsage struct {
	Limit     *int64 `json:"limit"`
	Remaining *int64 `json:"remaining,omitempty"`
}

type usageResponse struct {
	UserID                string                 `json:"user_id"`
	Entitlements          []string               `json:"entitlements"`
	SubscriptionStartedAt *time.Time             `json:"subscription_started_at,omitempty"`
	Usage                 map[string]periodUsage `json:"usage"`
}

type historyEntryResponse struct {
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	RequestCount int64     `json:"request_count"`
}

// UsageHandler serves the caller's current budgets and counter history.
// Reads never consume budget.
type UsageHandler struct {
	engine    *usecases.CheckAndIncrementUseCase
	historyUC *usecases.GetUsageHistoryUseCase
	provider  subscription.Provider
	limits    *ratelimit.LimitsConfig
	logger    logger.Interface
}

func NewUsageHandler(
	engine *usecases.CheckAndIncrementUseCase,
	historyUC *usecases.GetUsageHistoryUseCase,
	provider subscription.Provider,
	limits *ratelimit.LimitsConfig,
	logger logger.Interface,
) *UsageHandler {
	return &UsageHandler{
		engine:    engine,
		historyUC: historyUC,
		provider:  provider,
		limits:    limits,
		logger:    logger,
	}
}

// GetUsage handles GET /api/usage
func (h *UsageHandler) GetUsage(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	snapshot := h.lookupSnapshot(c, userID)
	limits := h.limits.Resolve(snapshot.Entitlements())

	decision, err := h.engine.CheckOnly(c.Request.Context(), usecases.CheckCommand{
		UserID:                userID,
		Limits:                limits,
		SubscriptionStartedAt: snapshot.StartedAt(),
	})
	if err != nil {
		_ = c.Error(err)
		h.logger.Errorw("failed to read usage", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, apperrors.NewInternalError("failed to read usage"))
		return
	}

	usage := make(map[string]periodUsage, 3)
	for _, periodType := range ratelimit.PeriodTypes() {
		entry := periodUsage{}
		if value, bounded := limits.Limit(periodType).Value(); bounded {
			entry.Limit = &value
			entry.Remaining = decision.Remaining.Get(periodType)
		}
		usage[periodType.String()] = entry
	}

	utils.SuccessResponse(c, http.StatusOK, "", usageResponse{
		UserID:                userID,
		Entitlements:          snapshot.Entitlements(),
		SubscriptionStartedAt: snapshot.StartedAt(),
		Usage:                 usage,
	})
}

// GetUsageHistory handles GET /api/usage/history?period=daily&limit=50
func (h *UsageHandler) GetUsageHistory(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	periodType := ratelimit.PeriodType(c.Query("period"))
	if !periodType.IsValid() {
		utils.ErrorResponseWithError(c, apperrors.NewBadRequestError("period must be one of hourly, daily, monthly"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.ErrorResponseWithError(c, apperrors.NewBadRequestError("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	snapshot := h.lookupSnapshot(c, userID)

	entries, err := h.historyUC.Execute(c.Request.Context(), usecases.GetUsageHistoryQuery{
		UserID:                userID,
		PeriodType:            periodType,
		SubscriptionStartedAt: snapshot.StartedAt(),
		Limit:                 limit,
	})
	if err != nil {
		_ = c.Error(err)
		utils.ErrorResponseWithError(c, apperrors.NewInternalError("failed to read usage history"))
		return
	}

	history := make([]historyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		history = append(history, historyEntryResponse{
			PeriodStart:  entry.PeriodStart,
			PeriodEnd:    entry.PeriodEnd,
			RequestCount: entry.RequestCount,
		})
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"user_id": userID,
		"period":  periodType.String(),
		"history": history,
	})
}

func (h *UsageHandler) currentUserID(c *gin.Context) (string, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		h.logger.Warnw("user ID not found in context")
		utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("user not authenticated"))
		return "", false
	}

	userID, ok := value.(string)
	if !ok || userID == "" {
		h.logger.Errorw("invalid user ID type in context")
		utils.ErrorResponseWithError(c, apperrors.NewInternalError("invalid user ID"))
		return "", false
	}

	return userID, true
}

// lookupSnapshot mirrors the limiter's degradation: a provider outage must
// not make the usage endpoints fail.
func (h *UsageHandler) lookupSnapshot(c *gin.Context, userID string) *subscription.Snapshot {
	snapshot, err := h.provider.Lookup(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warnw("subscription lookup failed, applying fallback plan",
			"error", err,
			"user_id", userID,
		)
		return subscription.NoneSnapshot()
	}
	return snapshot
}
