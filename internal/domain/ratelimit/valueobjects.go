// Package ratelimit provides domain models and business logic for
// entitlement-aware, multi-period request rate limiting.
package ratelimit

import "fmt"

// PeriodType represents one of the three concurrent limiting windows.
type PeriodType string

const (
	// PeriodHourly is the fixed window starting at the top of each UTC hour
	PeriodHourly PeriodType = "hourly"
	// PeriodDaily is the fixed window starting at each UTC midnight
	PeriodDaily PeriodType = "daily"
	// PeriodMonthly is the monthly window anchored to the subscriber's
	// first purchase day
	PeriodMonthly PeriodType = "monthly"
)

// PeriodTypes lists all period types in check-priority order. Hourly is
// checked first because it is the tightest window; the order must not be
// changed or clients would see an unstable exceeded-limit period.
func PeriodTypes() []PeriodType {
	return []PeriodType{PeriodHourly, PeriodDaily, PeriodMonthly}
}

// IsValid checks if the period type is valid
func (pt PeriodType) IsValid() bool {
	switch pt {
	case PeriodHourly, PeriodDaily, PeriodMonthly:
		return true
	default:
		return false
	}
}

// String returns the string representation of the period type
func (pt PeriodType) String() string {
	return string(pt)
}

// Title returns the capitalized form used in response header names.
func (pt PeriodType) Title() string {
	switch pt {
	case PeriodHourly:
		return "Hourly"
	case PeriodDaily:
		return "Daily"
	case PeriodMonthly:
		return "Monthly"
	default:
		return string(pt)
	}
}

// Limit is the request budget for one period: either Unlimited (no ceiling)
// or Bounded(n). Bounded(0) is a valid limit admitting no requests and is
// distinct from Unlimited.
type Limit struct {
	bounded bool
	value   int64
}

// Unlimited returns the limit with no ceiling.
func Unlimited() Limit {
	return Limit{}
}

// Bounded returns a limit of n requests per period.
func Bounded(n int64) (Limit, error) {
	if n < 0 {
		return Limit{}, fmt.Errorf("limit must be non-negative, got %d", n)
	}
	return Limit{bounded: true, value: n}, nil
}

// MustBounded returns a limit of n requests per period and panics on a
// negative n. Intended for tests and literals.
func MustBounded(n int64) Limit {
	l, err := Bounded(n)
	if err != nil {
		panic(err)
	}
	return l
}

// IsUnlimited reports whether the limit has no ceiling.
func (l Limit) IsUnlimited() bool {
	return !l.bounded
}

// Value returns the numeric ceiling and true, or 0 and false when unlimited.
func (l Limit) Value() (int64, bool) {
	if !l.bounded {
		return 0, false
	}
	return l.value, true
}

// ReachedBy reports whether count has consumed the whole budget.
// An unlimited budget is never reached.
func (l Limit) ReachedBy(count int64) bool {
	return l.bounded && count >= l.value
}

// Remaining returns the budget left after count requests, floored at zero.
// The second return is false when the limit is unlimited.
func (l Limit) Remaining(count int64) (int64, bool) {
	if !l.bounded {
		return 0, false
	}
	if count >= l.value {
		return 0, true
	}
	return l.value - count, true
}

// UpperBound joins two limits field-wise: Unlimited dominates any bound,
// two bounds combine by max. A user holding two tiers gets at least the
// benefit of either.
func (l Limit) UpperBound(other Limit) Limit {
	if !l.bounded || !other.bounded {
		return Unlimited()
	}
	if other.value > l.value {
		return other
	}
	return l
}

// String returns the string representation of the limit
func (l Limit) String() string {
	if !l.bounded {
		return "unlimited"
	}
	return fmt.Sprintf("%d", l.value)
}
