package booking

import (
	"context"

	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

// GetAppointment returns the appointment if userID takes part in it.
func (c *Coordinator) GetAppointment(ctx context.Context, appointmentID string, userID uint) (*models.Appointment, error) {
	ap, err := c.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if ap.UserID != userID && ap.CounselorID != userID {
		return nil, httperr.ErrForbidden
	}
	return ap, nil
}

// ListMine returns appointments booked by or with userID, newest first.
func (c *Coordinator) ListMine(ctx context.Context, userID uint) ([]models.Appointment, error) {
	return c.appointments.ListForParticipant(ctx, userID)
}
