package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfigGetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     3306,
		Username: "quotagate",
		Password: "secret",
		Database: "quotagate",
	}

	dsn := cfg.GetDSN()

	assert.Equal(t, "quotagate:secret@tcp(db.internal:3306)/quotagate?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=True&loc=UTC", dsn)
	// Counter period starts are canonical UTC instants; parsing them in the
	// server's location would shift every window boundary.
	assert.Contains(t, dsn, "loc=UTC")
}

func TestGetAddr(t *testing.T) {
	server := ServerConfig{Host: "0.0.0.0", Port: 8080}
	assert.Equal(t, "0.0.0.0:8080", server.GetAddr())

	redis := RedisConfig{Host: "cache.internal", Port: 6379}
	assert.Equal(t, "cache.internal:6379", redis.GetAddr())
}
