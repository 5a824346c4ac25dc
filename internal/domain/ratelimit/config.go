package ratelimit

// FallbackPlan is the reserved plan name applied to users with no active
// entitlement and to any entitlement name missing from the configuration.
const FallbackPlan = "none"

// LimitsConfig maps entitlement names to their rate-limit triples. The
// fallback plan is a dedicated field rather than a map key so that the
// required-key invariant is enforced at construction time.
type LimitsConfig struct {
	none  RateLimits
	plans map[string]RateLimits
}

// NewLimitsConfig builds a config from the fallback triple and the named
// plans. A "none" entry in plans would shadow the fallback and is rejected.
func NewLimitsConfig(none RateLimits, plans map[string]RateLimits) (*LimitsConfig, error) {
	copied := make(map[string]RateLimits, len(plans))
	for name, limits := range plans {
		if name == FallbackPlan {
			return nil, ErrReservedPlanName
		}
		if name == "" {
			return nil, ErrEmptyPlanName
		}
		copied[name] = limits
	}
	return &LimitsConfig{none: none, plans: copied}, nil
}

// NewLimitsConfigFromMap builds a config from a flat name → limits mapping.
// The map must contain the "none" key.
func NewLimitsConfigFromMap(plans map[string]RateLimits) (*LimitsConfig, error) {
	none, ok := plans[FallbackPlan]
	if !ok {
		return nil, ErrMissingFallbackPlan
	}
	rest := make(map[string]RateLimits, len(plans)-1)
	for name, limits := range plans {
		if name != FallbackPlan {
			rest[name] = limits
		}
	}
	return NewLimitsConfig(none, rest)
}

// None returns the fallback triple.
func (c *LimitsConfig) None() RateLimits {
	return c.none
}

// Plan returns the triple for the named plan, falling back to None for
// unknown names.
func (c *LimitsConfig) Plan(name string) RateLimits {
	if limits, ok := c.plans[name]; ok {
		return limits
	}
	return c.none
}

// PlanNames returns the configured plan names, excluding the fallback.
func (c *LimitsConfig) PlanNames() []string {
	names := make([]string, 0, len(c.plans))
	for name := range c.plans {
		names = append(names, name)
	}
	return names
}

// Resolve maps a set of active entitlement names to the effective limits.
// An empty set resolves to the fallback. A multi-entitlement set joins the
// per-entitlement triples with the upper bound, so the user gets at least
// the benefit of each tier they hold; unknown names contribute the
// fallback triple before joining.
func (c *LimitsConfig) Resolve(entitlements []string) RateLimits {
	if len(entitlements) == 0 {
		return c.none
	}

	effective := c.Plan(entitlements[0])
	for _, name := range entitlements[1:] {
		effective = effective.UpperBound(c.Plan(name))
	}
	return effective
}
