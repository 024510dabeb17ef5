package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

type Repository interface {
	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	GetAppointment(
		ctx context.Context,
		id string,
	) (*models.Appointment, error)

	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// ListConfirmedEndedBy returns confirmed appointments whose end time is at
	// or before now.
	ListConfirmedEndedBy(
		ctx context.Context,
		now time.Time,
	) ([]models.Appointment, error)

	// ListForCounselorBetween returns the counselor's appointments starting
	// in [from, to), earliest first.
	ListForCounselorBetween(
		ctx context.Context,
		counselorID uint,
		from time.Time,
		to time.Time,
	) ([]models.Appointment, error)

	// ListForParticipant returns appointments where userID is either the
	// client or the counselor, newest first.
	ListForParticipant(
		ctx context.Context,
		userID uint,
	) ([]models.Appointment, error)
}
