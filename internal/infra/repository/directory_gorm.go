package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

// DirectoryGormRepository reads counselor profiles and weekly hours.
type DirectoryGormRepository struct {
	db *gorm.DB
}

func NewDirectoryGormRepository(db *gorm.DB) *DirectoryGormRepository {
	return &DirectoryGormRepository{db: db}
}

func (r *DirectoryGormRepository) GetCounselor(
	ctx context.Context,
	userID uint,
) (*models.CounselorProfile, error) {

	var p models.CounselorProfile
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *DirectoryGormRepository) GetWorkingHours(
	ctx context.Context,
	counselorID uint,
	weekday int,
) (*models.WorkingHours, error) {

	var wh models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("counselor_id = ? AND weekday = ?", counselorID, weekday).
		First(&wh).Error; err != nil {
		return nil, notFound(err)
	}
	return &wh, nil
}

// Compile-time check
var _ schedule.Directory = (*DirectoryGormRepository)(nil)
