package ratelimit

// RateLimits is the request budget triple for the three concurrent windows.
type RateLimits struct {
	Hourly  Limit
	Daily   Limit
	Monthly Limit
}

// UnlimitedRateLimits returns a triple with no ceiling on any period.
func UnlimitedRateLimits() RateLimits {
	return RateLimits{
		Hourly:  Unlimited(),
		Daily:   Unlimited(),
		Monthly: Unlimited(),
	}
}

// Limit returns the budget for the given period type.
func (r RateLimits) Limit(periodType PeriodType) Limit {
	switch periodType {
	case PeriodHourly:
		return r.Hourly
	case PeriodDaily:
		return r.Daily
	case PeriodMonthly:
		return r.Monthly
	default:
		return Unlimited()
	}
}

// UpperBound joins two triples field-wise; see Limit.UpperBound.
func (r RateLimits) UpperBound(other RateLimits) RateLimits {
	return RateLimits{
		Hourly:  r.Hourly.UpperBound(other.Hourly),
		Daily:   r.Daily.UpperBound(other.Daily),
		Monthly: r.Monthly.UpperBound(other.Monthly),
	}
}
