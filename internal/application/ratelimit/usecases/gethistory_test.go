package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotagate/quotagate/internal/domain/ratelimit"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

type historyFakeRepo struct {
	fakeCounterRepo
	counters []*ratelimit.Counter
	err      error

	gotUserID     string
	gotPeriodType ratelimit.PeriodType
	gotLimit      int
}

func (f *historyFakeRepo) History(_ context.Context, userID string, periodType ratelimit.PeriodType, limit int) ([]*ratelimit.Counter, error) {
	f.gotUserID = userID
	f.gotPeriodType = periodType
	f.gotLimit = limit
	return f.counters, f.err
}

func historyCounter(t *testing.T, periodType ratelimit.PeriodType, periodStart time.Time, count int64) *ratelimit.Counter {
	t.Helper()
	counter, err := ratelimit.ReconstructCounter(1, "user_1", periodType, periodStart, count, periodStart, periodStart)
	require.NoError(t, err)
	return counter
}

func TestGetUsageHistory_Execute(t *testing.T) {
	t.Run("rejects an unknown period type", func(t *testing.T) {
		uc := NewGetUsageHistoryUseCase(&historyFakeRepo{}, logger.NewLogger())

		_, err := uc.Execute(context.Background(), GetUsageHistoryQuery{
			UserID:     "user_1",
			PeriodType: ratelimit.PeriodType("weekly"),
		})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidPeriodType)
	})

	t.Run("decorates hourly rows with the next hour boundary", func(t *testing.T) {
		start := time.Date(2025, time.June, 15, 14, 0, 0, 0, time.UTC)
		repo := &historyFakeRepo{counters: []*ratelimit.Counter{
			historyCounter(t, ratelimit.PeriodHourly, start, 7),
		}}
		uc := NewGetUsageHistoryUseCase(repo, logger.NewLogger())

		entries, err := uc.Execute(context.Background(), GetUsageHistoryQuery{
			UserID:     "user_1",
			PeriodType: ratelimit.PeriodHourly,
			Limit:      10,
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)

		assert.Equal(t, start, entries[0].PeriodStart)
		assert.Equal(t, start.Add(time.Hour), entries[0].PeriodEnd)
		assert.Equal(t, int64(7), entries[0].RequestCount)
		assert.Equal(t, "user_1", repo.gotUserID)
		assert.Equal(t, 10, repo.gotLimit)
	})

	t.Run("monthly rows end at the next anchored boundary", func(t *testing.T) {
		anchor := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
		start := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
		repo := &historyFakeRepo{counters: []*ratelimit.Counter{
			historyCounter(t, ratelimit.PeriodMonthly, start, 42),
		}}
		uc := NewGetUsageHistoryUseCase(repo, logger.NewLogger())

		entries, err := uc.Execute(context.Background(), GetUsageHistoryQuery{
			UserID:                "user_1",
			PeriodType:            ratelimit.PeriodMonthly,
			SubscriptionStartedAt: &anchor,
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)

		// February has no 31st, so the window ends on the clamped day.
		assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), entries[0].PeriodEnd)
	})

	t.Run("monthly rows without an anchor end at the calendar boundary", func(t *testing.T) {
		start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
		repo := &historyFakeRepo{counters: []*ratelimit.Counter{
			historyCounter(t, ratelimit.PeriodMonthly, start, 3),
		}}
		uc := NewGetUsageHistoryUseCase(repo, logger.NewLogger())

		entries, err := uc.Execute(context.Background(), GetUsageHistoryQuery{
			UserID:     "user_1",
			PeriodType: ratelimit.PeriodMonthly,
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), entries[0].PeriodEnd)
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		repo := &historyFakeRepo{err: errors.New("connection refused")}
		uc := NewGetUsageHistoryUseCase(repo, logger.NewLogger())

		entries, err := uc.Execute(context.Background(), GetUsageHistoryQuery{
			UserID:     "user_1",
			PeriodType: ratelimit.PeriodDaily,
		})
		assert.Error(t, err)
		assert.Nil(t, entries)
	})
}
