// Package config loads the application configuration from file and
// environment and converts the plan budgets into domain limits.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/quotagate/quotagate/internal/domain/ratelimit"
	sharedConfig "github.com/quotagate/quotagate/internal/shared/config"
)

type Config struct {
	Server     sharedConfig.ServerConfig     `mapstructure:"server"`
	Database   sharedConfig.DatabaseConfig   `mapstructure:"database"`
	Logger     sharedConfig.LoggerConfig     `mapstructure:"logger"`
	Auth       sharedConfig.AuthConfig       `mapstructure:"auth" validate:"required"`
	Provider   sharedConfig.ProviderConfig   `mapstructure:"provider" validate:"required"`
	Redis      sharedConfig.RedisConfig      `mapstructure:"redis"`
	RateLimits sharedConfig.RateLimitsConfig `mapstructure:"rate_limits"`
	IPThrottle sharedConfig.IPThrottleConfig `mapstructure:"ip_throttle"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("QUOTAGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Fail fast on bad budgets; the limiter must not start with a broken
	// plan table.
	if _, err := config.LimitsConfig(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// LimitsConfig converts the file shape of the plan budgets into the
// domain config. A nil budget means unlimited; negative budgets are
// rejected.
func (c *Config) LimitsConfig() (*ratelimit.LimitsConfig, error) {
	none, err := planLimits(c.RateLimits.None)
	if err != nil {
		return nil, fmt.Errorf("invalid fallback budgets: %w", err)
	}

	plans := make(map[string]ratelimit.RateLimits, len(c.RateLimits.Plans))
	for name, budgets := range c.RateLimits.Plans {
		limits, err := planLimits(budgets)
		if err != nil {
			return nil, fmt.Errorf("invalid budgets for plan %q: %w", name, err)
		}
		plans[name] = limits
	}

	return ratelimit.NewLimitsConfig(none, plans)
}

func planLimits(budgets sharedConfig.PlanLimitsConfig) (ratelimit.RateLimits, error) {
	hourly, err := planLimit(budgets.Hourly)
	if err != nil {
		return ratelimit.RateLimits{}, fmt.Errorf("hourly: %w", err)
	}
	daily, err := planLimit(budgets.Daily)
	if err != nil {
		return ratelimit.RateLimits{}, fmt.Errorf("daily: %w", err)
	}
	monthly, err := planLimit(budgets.Monthly)
	if err != nil {
		return ratelimit.RateLimits{}, fmt.Errorf("monthly: %w", err)
	}

	return ratelimit.RateLimits{Hourly: hourly, Daily: daily, Monthly: monthly}, nil
}

func planLimit(budget *int64) (ratelimit.Limit, error) {
	if budget == nil {
		return ratelimit.Unlimited(), nil
	}
	return ratelimit.Bounded(*budget)
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "quotagate_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Auth defaults
	viper.SetDefault("auth.jwt_secret", "change-me-in-production")

	// Provider defaults
	viper.SetDefault("provider.timeout", "10s")
	viper.SetDefault("provider.retry_max", 2)
	viper.SetDefault("provider.test_mode", false)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Fallback plan defaults: modest budgets for unsubscribed users
	viper.SetDefault("rate_limits.none.hourly", 10)
	viper.SetDefault("rate_limits.none.daily", 50)
	viper.SetDefault("rate_limits.none.monthly", 500)

	// IP throttle defaults
	viper.SetDefault("ip_throttle.enabled", false)
	viper.SetDefault("ip_throttle.limit", 120)
	viper.SetDefault("ip_throttle.window", "1m")
}
