// Package models contains the database persistence models. They are the
// anti-corruption layer between domain entities and the relational schema.
package models

import (
	"time"
)

// RateLimitCounterModel represents the database persistence model for
// per-user, per-period request counters. One row per
// (user_id, period_type, period_start); rows are never deleted so old
// windows remain queryable as history.
type RateLimitCounterModel struct {
	ID           uint      `gorm:"primarykey"`
	UserID       string    `gorm:"size:128;not null;uniqueIndex:idx_user_period_start;index:idx_user_period,priority:1"`
	PeriodType   string    `gorm:"size:16;not null;uniqueIndex:idx_user_period_start;index:idx_user_period,priority:2"`
	PeriodStart  time.Time `gorm:"not null;uniqueIndex:idx_user_period_start"`
	RequestCount int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (RateLimitCounterModel) TableName() string {
	return "rate_limit_counters"
}
