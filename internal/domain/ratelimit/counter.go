package ratelimit

import (
	"time"
)

// MaxUserIDLength is the storage limit for user identifiers.
const MaxUserIDLength = 128

// Counter is one persistent request counter: the number of admitted
// requests for a user within a single period window. Rows are created
// lazily on the first admitted request of a window and are never deleted;
// old windows remain as history.
type Counter struct {
	id           uint
	userID       string
	periodType   PeriodType
	periodStart  time.Time
	requestCount int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewCounter creates a counter for the first admitted request of a window.
// periodStart must be the canonical start instant produced by the period
// calculator, never the request's wall-clock timestamp.
func NewCounter(userID string, periodType PeriodType, periodStart time.Time, now time.Time) (*Counter, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if !periodType.IsValid() {
		return nil, ErrInvalidPeriodType
	}

	return &Counter{
		userID:       userID,
		periodType:   periodType,
		periodStart:  periodStart.UTC(),
		requestCount: 1,
		createdAt:    now.UTC(),
		updatedAt:    now.UTC(),
	}, nil
}

// ReconstructCounter reconstructs a counter from persistence.
func ReconstructCounter(
	id uint,
	userID string,
	periodType PeriodType,
	periodStart time.Time,
	requestCount int64,
	createdAt, updatedAt time.Time,
) (*Counter, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if !periodType.IsValid() {
		return nil, ErrInvalidPeriodType
	}
	if requestCount < 0 {
		return nil, ErrNegativeRequestCount
	}

	return &Counter{
		id:           id,
		userID:       userID,
		periodType:   periodType,
		periodStart:  periodStart.UTC(),
		requestCount: requestCount,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func validateUserID(userID string) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	if len(userID) > MaxUserIDLength {
		return ErrUserIDTooLong
	}
	return nil
}

// ID returns the persistence identifier.
func (c *Counter) ID() uint { return c.id }

// UserID returns the owning user's identifier.
func (c *Counter) UserID() string { return c.userID }

// PeriodType returns the window kind this counter belongs to.
func (c *Counter) PeriodType() PeriodType { return c.periodType }

// PeriodStart returns the canonical UTC start of the window.
func (c *Counter) PeriodStart() time.Time { return c.periodStart }

// RequestCount returns the number of admitted requests in the window.
func (c *Counter) RequestCount() int64 { return c.requestCount }

// CreatedAt returns the row creation time.
func (c *Counter) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last increment time.
func (c *Counter) UpdatedAt() time.Time { return c.updatedAt }
