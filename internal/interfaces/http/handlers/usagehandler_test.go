package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotagate/quotagate/internal/application/ratelimit/usecases"
	"github.com/quotagate/quotagate/internal/domain/ratelimit"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

// =====================================================================
// Fakes
// =====================================================================

type usageFakeRepo struct {
	counts  map[string]int64
	history []*ratelimit.Counter
}

func newUsageFakeRepo() *usageFakeRepo {
	return &usageFakeRepo{counts: make(map[string]int64)}
}

func usageKey(userID string, periodType ratelimit.PeriodType, periodStart time.Time) string {
	return fmt.Sprintf("%s|%s|%d", userID, periodType, periodStart.Unix())
}

func (r *usageFakeRepo) GetCount(_ context.Context, userID string, periodType ratelimit.PeriodType, periodStart time.Time) (int64, error) {
	return r.counts[usageKey(userID, periodType, periodStart)], nil
}

func (r *usageFakeRepo) IncrementOrInsert(_ context.Context, userID string, periodType ratelimit.PeriodType, periodStart time.Time, _ time.Time) error {
	r.counts[usageKey(userID, periodType, periodStart)]++
	return nil
}

func (r *usageFakeRepo) History(_ context.Context, _ string, _ ratelimit.PeriodType, _ int) ([]*ratelimit.Counter, error) {
	return r.history, nil
}

type usageStubProvider struct {
	snapshot *subscription.Snapshot
	err      error
}

func (p *usageStubProvider) Lookup(_ context.Context, _ string) (*subscription.Snapshot, error) {
	return p.snapshot, p.err
}

// =====================================================================
// Harness
// =====================================================================

func newUsageRouter(t *testing.T, repo *usageFakeRepo, provider *usageStubProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewLogger()
	limits, err := ratelimit.NewLimitsConfig(
		ratelimit.RateLimits{
			Hourly:  ratelimit.MustBounded(2),
			Daily:   ratelimit.MustBounded(5),
			Monthly: ratelimit.MustBounded(20),
		},
		map[string]ratelimit.RateLimits{
			"pro": {
				Hourly:  ratelimit.MustBounded(100),
				Daily:   ratelimit.Unlimited(),
				Monthly: ratelimit.Unlimited(),
			},
		},
	)
	require.NoError(t, err)

	handler := NewUsageHandler(
		usecases.NewCheckAndIncrementUseCase(repo, log),
		usecases.NewGetUsageHistoryUseCase(repo, log),
		provider,
		limits,
		log,
	)

	router := gin.New()
	authed := router.Group("/api", func(c *gin.Context) {
		if userID := c.GetHeader("X-Test-User"); userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	authed.GET("/usage", handler.GetUsage)
	authed.GET("/usage/history", handler.GetUsageHistory)

	return router
}

func usageRequest(t *testing.T, router *gin.Engine, path, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// =====================================================================
// Tests
// =====================================================================

func TestUsageHandler_GetUsage(t *testing.T) {
	t.Run("requires an authenticated user", func(t *testing.T) {
		router := newUsageRouter(t, newUsageFakeRepo(), &usageStubProvider{snapshot: subscription.NoneSnapshot()})
		w := usageRequest(t, router, "/api/usage", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"type":"unauthorized"`)
	})

	t.Run("reports budgets without consuming them", func(t *testing.T) {
		repo := newUsageFakeRepo()
		hourStart := time.Now().UTC().Truncate(time.Hour)
		repo.counts[usageKey("user_1", ratelimit.PeriodHourly, hourStart)] = 1

		router := newUsageRouter(t, repo, &usageStubProvider{snapshot: subscription.NoneSnapshot()})
		w := usageRequest(t, router, "/api/usage", "user_1")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Success bool `json:"success"`
			Data    struct {
				UserID       string   `json:"user_id"`
				Entitlements []string `json:"entitlements"`
				Usage        map[string]struct {
					Limit     *int64 `json:"limit"`
					Remaining *int64 `json:"remaining"`
				} `json:"usage"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

		assert.True(t, body.Success)
		assert.Equal(t, "user_1", body.Data.UserID)
		assert.Equal(t, []string{"none"}, body.Data.Entitlements)

		hourly := body.Data.Usage["hourly"]
		require.NotNil(t, hourly.Limit)
		assert.Equal(t, int64(2), *hourly.Limit)
		require.NotNil(t, hourly.Remaining)
		assert.Equal(t, int64(1), *hourly.Remaining)

		// The read must not have advanced any counter
		assert.Equal(t, int64(1), repo.counts[usageKey("user_1", ratelimit.PeriodHourly, hourStart)])
	})

	t.Run("unlimited periods report a null limit", func(t *testing.T) {
		started := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
		router := newUsageRouter(t, newUsageFakeRepo(), &usageStubProvider{
			snapshot: subscription.NewSnapshot([]string{"pro"}, &started),
		})
		w := usageRequest(t, router, "/api/usage", "user_1")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data struct {
				Usage map[string]struct {
					Limit     *int64 `json:"limit"`
					Remaining *int64 `json:"remaining"`
				} `json:"usage"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

		assert.Nil(t, body.Data.Usage["daily"].Limit)
		assert.Nil(t, body.Data.Usage["daily"].Remaining)
		require.NotNil(t, body.Data.Usage["hourly"].Limit)
		assert.Equal(t, int64(100), *body.Data.Usage["hourly"].Limit)
	})

	t.Run("provider outage degrades to the fallback plan", func(t *testing.T) {
		router := newUsageRouter(t, newUsageFakeRepo(), &usageStubProvider{err: subscription.ErrProviderUnavailable})
		w := usageRequest(t, router, "/api/usage", "user_1")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data struct {
				Entitlements []string `json:"entitlements"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, []string{"none"}, body.Data.Entitlements)
	})
}

func TestUsageHandler_GetUsageHistory(t *testing.T) {
	newCounter := func(periodStart time.Time, count int64) *ratelimit.Counter {
		counter, err := ratelimit.ReconstructCounter(1, "user_1", ratelimit.PeriodDaily, periodStart, count, periodStart, periodStart)
		require.NoError(t, err)
		return counter
	}

	t.Run("rejects a missing or unknown period", func(t *testing.T) {
		router := newUsageRouter(t, newUsageFakeRepo(), &usageStubProvider{snapshot: subscription.NoneSnapshot()})

		assert.Equal(t, http.StatusBadRequest, usageRequest(t, router, "/api/usage/history", "user_1").Code)
		assert.Equal(t, http.StatusBadRequest, usageRequest(t, router, "/api/usage/history?period=weekly", "user_1").Code)
	})

	t.Run("rejects a malformed limit", func(t *testing.T) {
		router := newUsageRouter(t, newUsageFakeRepo(), &usageStubProvider{snapshot: subscription.NoneSnapshot()})
		w := usageRequest(t, router, "/api/usage/history?period=daily&limit=abc", "user_1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"type":"bad_request"`)
	})

	t.Run("returns windows with exclusive ends", func(t *testing.T) {
		repo := newUsageFakeRepo()
		dayStart := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
		repo.history = []*ratelimit.Counter{
			newCounter(dayStart, 7),
			newCounter(dayStart.AddDate(0, 0, -1), 3),
		}

		router := newUsageRouter(t, repo, &usageStubProvider{snapshot: subscription.NoneSnapshot()})
		w := usageRequest(t, router, "/api/usage/history?period=daily&limit=50", "user_1")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data struct {
				Period  string `json:"period"`
				History []struct {
					PeriodStart  time.Time `json:"period_start"`
					PeriodEnd    time.Time `json:"period_end"`
					RequestCount int64     `json:"request_count"`
				} `json:"history"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

		assert.Equal(t, "daily", body.Data.Period)
		require.Len(t, body.Data.History, 2)
		assert.Equal(t, dayStart, body.Data.History[0].PeriodStart)
		assert.Equal(t, dayStart.AddDate(0, 0, 1), body.Data.History[0].PeriodEnd)
		assert.Equal(t, int64(7), body.Data.History[0].RequestCount)
	})
}
