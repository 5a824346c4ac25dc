package ratelimit

import (
	"context"
	"time"
)

// DefaultHistoryLimit is the number of history rows returned when the
// caller does not specify a limit.
const DefaultHistoryLimit = 100

// CounterRepository defines the persistence contract for request counters.
//
// Implementations must be safe under concurrent callers for the same
// (userID, periodType, periodStart) key; the unique index on that triple
// serializes upserts, and IncrementOrInsert is expected to increment
// atomically in the store so concurrent admits never lose updates.
type CounterRepository interface {
	// GetCount returns the request count for the unique
	// (userID, periodType, periodStart) row, or 0 when no row exists.
	// Absence is not an error.
	GetCount(ctx context.Context, userID string, periodType PeriodType, periodStart time.Time) (int64, error)

	// IncrementOrInsert adds one admitted request to the window's counter,
	// creating the row with requestCount = 1 when it does not exist yet.
	IncrementOrInsert(ctx context.Context, userID string, periodType PeriodType, periodStart time.Time, now time.Time) error

	// History returns up to limit counters for (userID, periodType)
	// ordered by period start descending. limit <= 0 applies
	// DefaultHistoryLimit.
	History(ctx context.Context, userID string, periodType PeriodType, limit int) ([]*Counter, error)
}
