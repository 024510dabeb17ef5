package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

type CallbackGormRepository struct {
	db *gorm.DB
}

func NewCallbackGormRepository(db *gorm.DB) *CallbackGormRepository {
	return &CallbackGormRepository{db: db}
}

func (r *CallbackGormRepository) GetCallback(
	ctx context.Context,
	dedupKey string,
) (*models.CallbackRecord, error) {

	var rec models.CallbackRecord
	if err := r.db.WithContext(ctx).
		Where("dedup_key = ?", dedupKey).
		First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// InsertCallback reports false when another worker stored the key first.
func (r *CallbackGormRepository) InsertCallback(
	ctx context.Context,
	rec *models.CallbackRecord,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *CallbackGormRepository) PurgeCallbacksBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {

	res := r.db.WithContext(ctx).
		Where("processed_at < ?", cutoff).
		Delete(&models.CallbackRecord{})
	return res.RowsAffected, res.Error
}

// Compile-time check
var _ payment.CallbackStore = (*CallbackGormRepository)(nil)
