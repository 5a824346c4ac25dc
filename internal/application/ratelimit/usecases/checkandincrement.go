// Package usecases provides the application-level rate limiting engine:
// admission decisions over the persistent counters and usage history reads.
package usecases

import (
	"context"
	"net/http"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/quotagate/quotagate/internal/domain/ratelimit"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

// CheckCommand carries one admission check. Now is injectable for
// determinism; the zero value uses the UTC clock.
type CheckCommand struct {
	UserID                string
	Limits                ratelimit.RateLimits
	SubscriptionStartedAt *time.Time
	Now                   time.Time
}

// Remaining is the per-period budget left after the decision. A nil field
// means the corresponding limit is unlimited and untracked.
type Remaining struct {
	Hourly  *int64
	Daily   *int64
	Monthly *int64
}

// Get returns the remaining budget for the given period, or nil.
func (r Remaining) Get(periodType ratelimit.PeriodType) *int64 {
	switch periodType {
	case ratelimit.PeriodHourly:
		return r.Hourly
	case ratelimit.PeriodDaily:
		return r.Daily
	case ratelimit.PeriodMonthly:
		return r.Monthly
	default:
		return nil
	}
}

func (r *Remaining) set(periodType ratelimit.PeriodType, value int64) {
	switch periodType {
	case ratelimit.PeriodHourly:
		r.Hourly = &value
	case ratelimit.PeriodDaily:
		r.Daily = &value
	case ratelimit.PeriodMonthly:
		r.Monthly = &value
	}
}

// AdmissionDecision is the verdict for one request. ExceededLimit is set
// on rejection to the first violated period in hourly → daily → monthly
// order; the decision always echoes the effective limits.
type AdmissionDecision struct {
	Allowed       bool
	StatusCode    int
	Remaining     Remaining
	ExceededLimit *ratelimit.PeriodType
	Limits        ratelimit.RateLimits
}

// CheckAndIncrementUseCase is the rate-limit engine. It composes the
// period calculator with the counter store: one call reads the three
// current-window counts, decides admission, and on admit advances the
// counters of the bounded periods.
type CheckAndIncrementUseCase struct {
	counters ratelimit.CounterRepository
	logger   logger.Interface
}

// NewCheckAndIncrementUseCase creates a new rate-limit engine instance.
func NewCheckAndIncrementUseCase(counters ratelimit.CounterRepository, logger logger.Interface) *CheckAndIncrementUseCase {
	return &CheckAndIncrementUseCase{
		counters: counters,
		logger:   logger,
	}
}

// periodWindow pairs a period type with its current canonical start.
type periodWindow struct {
	periodType ratelimit.PeriodType
	start      time.Time
	count      int64
}

// Execute checks the three period budgets and, when all are satisfied,
// increments the counters of the bounded periods. On rejection nothing is
// written. A store failure is returned as an error without a decision.
func (uc *CheckAndIncrementUseCase) Execute(ctx context.Context, cmd CheckCommand) (*AdmissionDecision, error) {
	now := cmd.Now
	if now.IsZero() {
		now = biztime.NowUTC()
	}

	windows, err := uc.readCounts(ctx, cmd, now)
	if err != nil {
		return nil, err
	}

	if decision := rejectionFor(cmd.Limits, windows); decision != nil {
		uc.logger.Infow("rate limit exceeded",
			"user_id", cmd.UserID,
			"exceeded_limit", decision.ExceededLimit.String(),
		)
		return decision, nil
	}

	if err := uc.incrementBounded(ctx, cmd, windows, now); err != nil {
		return nil, err
	}

	return admittedDecision(cmd.Limits, windows), nil
}

// CheckOnly computes the same decision as Execute but never writes,
// regardless of the outcome.
func (uc *CheckAndIncrementUseCase) CheckOnly(ctx context.Context, cmd CheckCommand) (*AdmissionDecision, error) {
	now := cmd.Now
	if now.IsZero() {
		now = biztime.NowUTC()
	}

	windows, err := uc.readCounts(ctx, cmd, now)
	if err != nil {
		return nil, err
	}

	if decision := rejectionFor(cmd.Limits, windows); decision != nil {
		return decision, nil
	}

	// Report remaining from the pre-increment counts: nothing was consumed.
	decision := &AdmissionDecision{
		Allowed:    true,
		StatusCode: http.StatusOK,
		Limits:     cmd.Limits,
	}
	for _, w := range windows {
		if remaining, ok := cmd.Limits.Limit(w.periodType).Remaining(w.count); ok {
			decision.Remaining.set(w.periodType, remaining)
		}
	}
	return decision, nil
}

// readCounts resolves the three current period starts and reads their
// counts in parallel against the same logical now.
func (uc *CheckAndIncrementUseCase) readCounts(ctx context.Context, cmd CheckCommand, now time.Time) ([]*periodWindow, error) {
	windows := []*periodWindow{
		{periodType: ratelimit.PeriodHourly, start: biztime.CurrentHourStart(now)},
		{periodType: ratelimit.PeriodDaily, start: biztime.CurrentDayStart(now)},
		{periodType: ratelimit.PeriodMonthly, start: biztime.SubscriptionMonthStart(cmd.SubscriptionStartedAt, now)},
	}

	p := pool.New().WithContext(ctx)
	for _, w := range windows {
		w := w
		p.Go(func(ctx context.Context) error {
			count, err := uc.counters.GetCount(ctx, cmd.UserID, w.periodType, w.start)
			if err != nil {
				return err
			}
			w.count = count
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		uc.logger.Errorw("failed to read rate limit counters",
			"error", err,
			"user_id", cmd.UserID,
		)
		return nil, err
	}

	return windows, nil
}

// incrementBounded advances the counters of periods with a bounded limit,
// in parallel. Unlimited periods are never written: an unlimited tier must
// not dirty the table per request.
func (uc *CheckAndIncrementUseCase) incrementBounded(ctx context.Context, cmd CheckCommand, windows []*periodWindow, now time.Time) error {
	p := pool.New().WithContext(ctx)
	for _, w := range windows {
		if cmd.Limits.Limit(w.periodType).IsUnlimited() {
			continue
		}
		w := w
		p.Go(func(ctx context.Context) error {
			return uc.counters.IncrementOrInsert(ctx, cmd.UserID, w.periodType, w.start, now)
		})
	}

	if err := p.Wait(); err != nil {
		uc.logger.Errorw("failed to increment rate limit counters",
			"error", err,
			"user_id", cmd.UserID,
		)
		return err
	}

	return nil
}

// rejectionFor returns the rejection decision for the first period in
// hourly → daily → monthly order whose budget is exhausted, or nil when
// all budgets hold. Remaining reflects the pre-increment counts.
func rejectionFor(limits ratelimit.RateLimits, windows []*periodWindow) *AdmissionDecision {
	for _, w := range windows {
		if !limits.Limit(w.periodType).ReachedBy(w.count) {
			continue
		}

		exceeded := w.periodType
		decision := &AdmissionDecision{
			Allowed:       false,
			StatusCode:    http.StatusTooManyRequests,
			ExceededLimit: &exceeded,
			Limits:        limits,
		}
		for _, v := range windows {
			if remaining, ok := limits.Limit(v.periodType).Remaining(v.count); ok {
				decision.Remaining.set(v.periodType, remaining)
			}
		}
		return decision
	}
	return nil
}

// admittedDecision reports remaining budgets after the increments that
// Execute just performed.
func admittedDecision(limits ratelimit.RateLimits, windows []*periodWindow) *AdmissionDecision {
	decision := &AdmissionDecision{
		Allowed:    true,
		StatusCode: http.StatusOK,
		Limits:     limits,
	}
	for _, w := range windows {
		if remaining, ok := limits.Limit(w.periodType).Remaining(w.count + 1); ok {
			decision.Remaining.set(w.periodType, remaining)
		}
	}
	return decision
}
