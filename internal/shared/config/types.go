package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// GetDSN builds the MySQL DSN. All period arithmetic is UTC, so times are
// parsed as UTC rather than the server's location.
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig carries the settings for the default user extractor, which
// reads the subject claim from a bearer JWT.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required"`
}

// ProviderConfig carries the subscription provider credentials. TestMode
// keeps sandbox entitlements instead of filtering them out.
type ProviderConfig struct {
	BaseURL  string        `mapstructure:"base_url" validate:"required,url"`
	APIKey   string        `mapstructure:"api_key" validate:"required"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RetryMax int           `mapstructure:"retry_max"`
	TestMode bool          `mapstructure:"test_mode"`
}

// PlanLimitsConfig is the config-file shape of one plan's budgets. Nil
// means unlimited; zero is a valid budget admitting no requests.
type PlanLimitsConfig struct {
	Hourly  *int64 `mapstructure:"hourly"`
	Daily   *int64 `mapstructure:"daily"`
	Monthly *int64 `mapstructure:"monthly"`
}

// RateLimitsConfig declares the fallback budgets and the per-plan budgets.
// The fallback applies to users with no active entitlement and to unknown
// entitlement names.
type RateLimitsConfig struct {
	None  PlanLimitsConfig            `mapstructure:"none"`
	Plans map[string]PlanLimitsConfig `mapstructure:"plans"`
}

// IPThrottleConfig configures the Redis-backed per-IP fixed-window
// throttle in front of the public endpoints.
type IPThrottleConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}
