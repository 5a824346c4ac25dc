package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quotagate/quotagate/internal/domain/ratelimit"
	"github.com/quotagate/quotagate/internal/infrastructure/persistence/models"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.RateLimitCounterModel{})
	require.NoError(t, err)

	return db
}

func newTestRepo(t *testing.T) ratelimit.CounterRepository {
	return NewRateLimitCounterRepository(setupTestDB(t), logger.NewLogger())
}

func TestRateLimitCounterRepository_GetCount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	periodStart := time.Date(2025, time.June, 15, 14, 0, 0, 0, time.UTC)
	now := periodStart.Add(30 * time.Minute)

	t.Run("missing row returns zero without error", func(t *testing.T) {
		count, err := repo.GetCount(ctx, "user_1", ratelimit.PeriodHourly, periodStart)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("existing row returns its count", func(t *testing.T) {
		require.NoError(t, repo.IncrementOrInsert(ctx, "user_1", ratelimit.PeriodHourly, periodStart, now))
		require.NoError(t, repo.IncrementOrInsert(ctx, "user_1", ratelimit.PeriodHourly, periodStart, now))

		count, err := repo.GetCount(ctx, "user_1", ratelimit.PeriodHourly, periodStart)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("count is keyed by period start", func(t *testing.T) {
		other := periodStart.Add(time.Hour)
		count, err := repo.GetCount(ctx, "user_1", ratelimit.PeriodHourly, other)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("count is keyed by period type", func(t *testing.T) {
		count, err := repo.GetCount(ctx, "user_1", ratelimit.PeriodDaily, periodStart)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestRateLimitCounterRepository_IncrementOrInsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	periodStart := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	now := periodStart.Add(10 * time.Hour)

	t.Run("first increment inserts with count one", func(t *testing.T) {
		require.NoError(t, repo.IncrementOrInsert(ctx, "user_2", ratelimit.PeriodDaily, periodStart, now))

		count, err := repo.GetCount(ctx, "user_2", ratelimit.PeriodDaily, periodStart)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("subsequent increments update in place", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			require.NoError(t, repo.IncrementOrInsert(ctx, "user_2", ratelimit.PeriodDaily, periodStart, now.Add(time.Duration(i)*time.Minute)))
		}

		count, err := repo.GetCount(ctx, "user_2", ratelimit.PeriodDaily, periodStart)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("a new period start opens a new row and preserves the old one", func(t *testing.T) {
		nextStart := periodStart.AddDate(0, 0, 1)
		require.NoError(t, repo.IncrementOrInsert(ctx, "user_2", ratelimit.PeriodDaily, nextStart, nextStart))

		oldCount, err := repo.GetCount(ctx, "user_2", ratelimit.PeriodDaily, periodStart)
		require.NoError(t, err)
		assert.Equal(t, int64(5), oldCount)

		newCount, err := repo.GetCount(ctx, "user_2", ratelimit.PeriodDaily, nextStart)
		require.NoError(t, err)
		assert.Equal(t, int64(1), newCount)
	})
}

func TestRateLimitCounterRepository_History(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		start := base.AddDate(0, 0, i)
		require.NoError(t, repo.IncrementOrInsert(ctx, "user_3", ratelimit.PeriodDaily, start, start))
	}
	// Another user and another period type must not leak into the scan
	require.NoError(t, repo.IncrementOrInsert(ctx, "other", ratelimit.PeriodDaily, base, base))
	require.NoError(t, repo.IncrementOrInsert(ctx, "user_3", ratelimit.PeriodHourly, base, base))

	t.Run("returns rows most recent first", func(t *testing.T) {
		history, err := repo.History(ctx, "user_3", ratelimit.PeriodDaily, 0)
		require.NoError(t, err)
		require.Len(t, history, 5)

		for i := 1; i < len(history); i++ {
			assert.True(t, history[i].PeriodStart().Before(history[i-1].PeriodStart()),
				"history must be strictly decreasing by period start")
		}
		assert.Equal(t, base.AddDate(0, 0, 4), history[0].PeriodStart())
	})

	t.Run("respects the limit", func(t *testing.T) {
		history, err := repo.History(ctx, "user_3", ratelimit.PeriodDaily, 2)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, base.AddDate(0, 0, 4), history[0].PeriodStart())
		assert.Equal(t, base.AddDate(0, 0, 3), history[1].PeriodStart())
	})

	t.Run("empty history is not an error", func(t *testing.T) {
		history, err := repo.History(ctx, "nobody", ratelimit.PeriodDaily, 0)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}
