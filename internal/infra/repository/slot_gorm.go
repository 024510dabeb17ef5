package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/slot"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

var activeStates = []string{string(slot.StateHeld), string(slot.StateConfirmed)}

type SlotGormRepository struct {
	db *gorm.DB
}

func NewSlotGormRepository(db *gorm.DB) *SlotGormRepository {
	return &SlotGormRepository{db: db}
}

// InsertHold checks for an overlapping active slot and inserts in one
// transaction. On postgres the time_slots exclusion constraint catches the
// race the row locks cannot see.
func (r *SlotGormRepository) InsertHold(
	ctx context.Context,
	ts *models.TimeSlot,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var clash []models.TimeSlot
		if err := forUpdate(tx).
			Where(
				"counselor_id = ? AND hold_state IN ? AND start_time < ? AND end_time > ?",
				ts.CounselorID,
				activeStates,
				ts.EndTime,
				ts.StartTime,
			).
			Limit(1).
			Find(&clash).Error; err != nil {
			return err
		}
		if len(clash) > 0 {
			return httperr.ErrSlotUnavailable
		}
		return tx.Create(ts).Error
	})

	switch {
	case err == nil:
		return nil
	case httperr.IsExclusionConflict(err):
		return httperr.ErrSlotUnavailable
	case isDuplicate(err):
		return httperr.ErrInvalidInput
	default:
		return err
	}
}

func (r *SlotGormRepository) GetByOwner(
	ctx context.Context,
	owner string,
) (*models.TimeSlot, error) {

	var ts models.TimeSlot
	if err := r.db.WithContext(ctx).
		Where("hold_owner = ?", owner).
		First(&ts).Error; err != nil {
		return nil, notFound(err)
	}
	return &ts, nil
}

func (r *SlotGormRepository) UpdateSlot(
	ctx context.Context,
	ts *models.TimeSlot,
) error {
	return r.db.WithContext(ctx).Save(ts).Error
}

func (r *SlotGormRepository) ListExpiredHolds(
	ctx context.Context,
	now time.Time,
) ([]models.TimeSlot, error) {

	var out []models.TimeSlot
	if err := r.db.WithContext(ctx).
		Where("hold_state = ? AND hold_expires_at < ?", string(slot.StateHeld), now).
		Order("start_time ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SlotGormRepository) ListActive(
	ctx context.Context,
	counselorID uint,
	from time.Time,
	to time.Time,
) ([]models.TimeSlot, error) {

	var out []models.TimeSlot
	if err := r.db.WithContext(ctx).
		Where(
			"counselor_id = ? AND hold_state IN ? AND start_time < ? AND end_time > ?",
			counselorID,
			activeStates,
			to.UTC(),
			from.UTC(),
		).
		Order("start_time ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Compile-time check
var _ slot.Repository = (*SlotGormRepository)(nil)
