package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *LimitsConfig {
	t.Helper()
	cfg, err := NewLimitsConfig(
		RateLimits{Hourly: MustBounded(5), Daily: MustBounded(20), Monthly: MustBounded(100)},
		map[string]RateLimits{
			"starter": {Hourly: MustBounded(10), Daily: MustBounded(50), Monthly: MustBounded(500)},
			"pro":     {Hourly: MustBounded(100), Daily: Unlimited(), Monthly: Unlimited()},
		},
	)
	require.NoError(t, err)
	return cfg
}

func TestNewLimitsConfig_RejectsReservedName(t *testing.T) {
	_, err := NewLimitsConfig(RateLimits{}, map[string]RateLimits{
		"none": {},
	})
	assert.ErrorIs(t, err, ErrReservedPlanName)
}

func TestNewLimitsConfig_RejectsEmptyName(t *testing.T) {
	_, err := NewLimitsConfig(RateLimits{}, map[string]RateLimits{
		"": {},
	})
	assert.ErrorIs(t, err, ErrEmptyPlanName)
}

func TestNewLimitsConfigFromMap(t *testing.T) {
	t.Run("missing none key fails", func(t *testing.T) {
		_, err := NewLimitsConfigFromMap(map[string]RateLimits{
			"pro": {Hourly: MustBounded(100)},
		})
		assert.ErrorIs(t, err, ErrMissingFallbackPlan)
	})

	t.Run("none key becomes the fallback", func(t *testing.T) {
		cfg, err := NewLimitsConfigFromMap(map[string]RateLimits{
			"none": {Hourly: MustBounded(2)},
			"pro":  {Hourly: MustBounded(100)},
		})
		require.NoError(t, err)
		assert.Equal(t, MustBounded(2), cfg.None().Hourly)
		assert.Equal(t, MustBounded(100), cfg.Plan("pro").Hourly)
	})
}

func TestLimitsConfig_Resolve(t *testing.T) {
	cfg := testConfig(t)

	t.Run("empty set resolves to fallback", func(t *testing.T) {
		assert.Equal(t, cfg.None(), cfg.Resolve(nil))
		assert.Equal(t, cfg.None(), cfg.Resolve([]string{}))
	})

	t.Run("single known entitlement", func(t *testing.T) {
		got := cfg.Resolve([]string{"starter"})
		assert.Equal(t, MustBounded(10), got.Hourly)
		assert.Equal(t, MustBounded(50), got.Daily)
		assert.Equal(t, MustBounded(500), got.Monthly)
	})

	t.Run("single unknown entitlement falls back", func(t *testing.T) {
		assert.Equal(t, cfg.None(), cfg.Resolve([]string{"enterprise"}))
	})

	t.Run("multi-entitlement upper bound", func(t *testing.T) {
		got := cfg.Resolve([]string{"starter", "pro"})
		assert.Equal(t, MustBounded(100), got.Hourly)
		assert.True(t, got.Daily.IsUnlimited())
		assert.True(t, got.Monthly.IsUnlimited())
	})

	t.Run("unknown member of a multi set contributes the fallback", func(t *testing.T) {
		got := cfg.Resolve([]string{"enterprise", "starter"})
		assert.Equal(t, MustBounded(10), got.Hourly)
		assert.Equal(t, MustBounded(50), got.Daily)
		assert.Equal(t, MustBounded(500), got.Monthly)
	})

	t.Run("resolve is order independent", func(t *testing.T) {
		assert.Equal(t, cfg.Resolve([]string{"starter", "pro"}), cfg.Resolve([]string{"pro", "starter"}))
	})
}

func TestLimitsConfig_Plan(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, cfg.None(), cfg.Plan("nope"))
	assert.ElementsMatch(t, []string{"starter", "pro"}, cfg.PlanNames())
}

func TestRateLimits_Limit(t *testing.T) {
	limits := RateLimits{Hourly: MustBounded(1), Daily: MustBounded(2), Monthly: MustBounded(3)}
	assert.Equal(t, MustBounded(1), limits.Limit(PeriodHourly))
	assert.Equal(t, MustBounded(2), limits.Limit(PeriodDaily))
	assert.Equal(t, MustBounded(3), limits.Limit(PeriodMonthly))
}
