package usecases

import (
	"context"
	"time"

	"github.com/quotagate/quotagate/internal/domain/ratelimit"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

// GetUsageHistoryQuery selects one user's counter history for a period
// type. Limit <= 0 applies the repository default. The subscription
// anchor is needed to derive the exclusive end of monthly windows.
type GetUsageHistoryQuery struct {
	UserID                string
	PeriodType            ratelimit.PeriodType
	SubscriptionStartedAt *time.Time
	Limit                 int
}

// UsageHistoryEntry is one historical window with its request count.
// PeriodEnd is the exclusive upper bound of the window.
type UsageHistoryEntry struct {
	PeriodStart  time.Time
	PeriodEnd    time.Time
	RequestCount int64
}

// GetUsageHistoryUseCase reads preserved counter rows, most recent first,
// and decorates each with its window end.
type GetUsageHistoryUseCase struct {
	counters ratelimit.CounterRepository
	logger   logger.Interface
}

func NewGetUsageHistoryUseCase(counters ratelimit.CounterRepository, logger logger.Interface) *GetUsageHistoryUseCase {
	return &GetUsageHistoryUseCase{
		counters: counters,
		logger:   logger,
	}
}

func (uc *GetUsageHistoryUseCase) Execute(ctx context.Context, query GetUsageHistoryQuery) ([]UsageHistoryEntry, error) {
	if !query.PeriodType.IsValid() {
		return nil, ratelimit.ErrInvalidPeriodType
	}

	counters, err := uc.counters.History(ctx, query.UserID, query.PeriodType, query.Limit)
	if err != nil {
		uc.logger.Errorw("failed to get usage history",
			"error", err,
			"user_id", query.UserID,
			"period_type", query.PeriodType,
		)
		return nil, err
	}

	entries := make([]UsageHistoryEntry, 0, len(counters))
	for _, counter := range counters {
		entries = append(entries, UsageHistoryEntry{
			PeriodStart:  counter.PeriodStart(),
			PeriodEnd:    periodEnd(query.PeriodType, query.SubscriptionStartedAt, counter.PeriodStart()),
			RequestCount: counter.RequestCount(),
		})
	}

	return entries, nil
}

// periodEnd derives the exclusive end of a historical window from its
// start. For monthly windows the anchored calculator is evaluated at the
// window's own start, which yields the next anchored boundary.
func periodEnd(periodType ratelimit.PeriodType, anchor *time.Time, periodStart time.Time) time.Time {
	switch periodType {
	case ratelimit.PeriodHourly:
		return biztime.NextHourStart(periodStart)
	case ratelimit.PeriodDaily:
		return biztime.NextDayStart(periodStart)
	default:
		return biztime.NextSubscriptionMonthStart(anchor, periodStart)
	}
}
