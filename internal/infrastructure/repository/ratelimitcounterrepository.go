// Package repository provides GORM-backed implementations of the domain
// repository interfaces.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quotagate/quotagate/internal/domain/ratelimit"
	"github.com/quotagate/quotagate/internal/infrastructure/persistence/models"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

type RateLimitCounterRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewRateLimitCounterRepository(db *gorm.DB, logger logger.Interface) ratelimit.CounterRepository {
	return &RateLimitCounterRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *RateLimitCounterRepositoryImpl) GetCount(ctx context.Context, userID string, periodType ratelimit.PeriodType, periodStart time.Time) (int64, error) {
	var model models.RateLimitCounterModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND period_type = ? AND period_start = ?", userID, periodType.String(), periodStart.UTC()).
		First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		r.logger.Errorw("failed to get request count",
			"error", err,
			"user_id", userID,
			"period_type", periodType,
		)
		return 0, fmt.Errorf("failed to get request count: %w", err)
	}

	return model.RequestCount, nil
}

// IncrementOrInsert relies on the unique index over
// (user_id, period_type, period_start): the insert either creates the
// window's row with count 1 or falls into an atomic in-store increment, so
// concurrent admits never lose updates.
func (r *RateLimitCounterRepositoryImpl) IncrementOrInsert(ctx context.Context, userID string, periodType ratelimit.PeriodType, periodStart time.Time, now time.Time) error {
	model := models.RateLimitCounterModel{
		UserID:       userID,
		PeriodType:   periodType.String(),
		PeriodStart:  periodStart.UTC(),
		RequestCount: 1,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "period_type"}, {Name: "period_start"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + 1"),
			"updated_at":    now.UTC(),
		}),
	}).Create(&model)

	if result.Error != nil {
		r.logger.Errorw("failed to increment request counter",
			"error", result.Error,
			"user_id", userID,
			"period_type", periodType,
			"period_start", periodStart,
		)
		return fmt.Errorf("failed to increment request counter: %w", result.Error)
	}

	return nil
}

func (r *RateLimitCounterRepositoryImpl) History(ctx context.Context, userID string, periodType ratelimit.PeriodType, limit int) ([]*ratelimit.Counter, error) {
	if limit <= 0 {
		limit = ratelimit.DefaultHistoryLimit
	}

	var counterModels []*models.RateLimitCounterModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND period_type = ?", userID, periodType.String()).
		Order("period_start DESC").
		Limit(limit).
		Find(&counterModels).Error

	if err != nil {
		r.logger.Errorw("failed to get counter history",
			"error", err,
			"user_id", userID,
			"period_type", periodType,
		)
		return nil, fmt.Errorf("failed to get counter history: %w", err)
	}

	return r.toEntities(counterModels)
}

func (r *RateLimitCounterRepositoryImpl) toEntity(model *models.RateLimitCounterModel) (*ratelimit.Counter, error) {
	if model == nil {
		return nil, nil
	}

	return ratelimit.ReconstructCounter(
		model.ID,
		model.UserID,
		ratelimit.PeriodType(model.PeriodType),
		model.PeriodStart,
		model.RequestCount,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (r *RateLimitCounterRepositoryImpl) toEntities(counterModels []*models.RateLimitCounterModel) ([]*ratelimit.Counter, error) {
	counters := make([]*ratelimit.Counter, 0, len(counterModels))

	for _, model := range counterModels {
		counter, err := r.toEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to convert model ID %d: %w", model.ID, err)
		}
		if counter != nil {
			counters = append(counters, counter)
		}
	}

	return counters, nil
}
