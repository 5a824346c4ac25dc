package ratelimit

import "errors"

var (
	// ErrMissingFallbackPlan is returned when a limits config has no "none" plan
	ErrMissingFallbackPlan = errors.New(`rate limits config must define the "none" plan`)

	// ErrReservedPlanName is returned when a named plan tries to use the reserved fallback name
	ErrReservedPlanName = errors.New(`"none" is reserved for the fallback plan`)

	// ErrEmptyPlanName is returned when a plan is configured with an empty name
	ErrEmptyPlanName = errors.New("plan name cannot be empty")

	// ErrInvalidPeriodType is returned when an invalid period type is provided
	ErrInvalidPeriodType = errors.New("invalid period type")

	// ErrUserIDRequired is returned when a user ID is missing
	ErrUserIDRequired = errors.New("user ID is required")

	// ErrUserIDTooLong is returned when a user ID exceeds the storage limit
	ErrUserIDTooLong = errors.New("user ID exceeds 128 characters")

	// ErrNegativeRequestCount is returned when a counter would go negative
	ErrNegativeRequestCount = errors.New("request count cannot be negative")
)
