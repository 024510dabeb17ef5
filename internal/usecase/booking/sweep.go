package booking

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/slot"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/internal/notify"
)

// OnSlotExpired settles the appointment behind a lapsed hold before the slot
// is freed. A still-Pending appointment is cancelled and its order voided.
// Cancelled or Completed owners, and owners that were never created, need
// nothing and let the slot go.
//
// A Confirmed appointment here means the confirm path left an expiry behind.
// It is reported as InvalidTransition so the slot stays reserved.
func (c *Coordinator) OnSlotExpired(ctx context.Context, ev slot.Expired) error {
	var (
		result    *models.Appointment
		settled   *models.Order
		refund    bool
		cancelled bool
	)

	err := c.withAppointment(ctx, ev.AppointmentID, func(ap *models.Appointment, now time.Time) error {
		result = ap

		switch appointment.Status(ap.Status) {
		case appointment.StatusPending:
			var err error
			settled, refund, err = c.closeOut(ctx, ap, now, appointment.ReasonHoldExpired, appointment.System)
			if err != nil {
				return err
			}
			cancelled = true

		case appointment.StatusConfirmed:
			c.log.Error("hold expired on confirmed appointment",
				"appointment_id", ap.ID,
				"counselor_id", ev.CounselorID,
				"start", ev.StartTime,
			)
			return httperr.ErrInvalidTransition
		}
		return nil
	})
	if errors.Is(err, httperr.ErrNotFound) {
		c.log.Warn("lapsed hold without appointment", "owner", ev.AppointmentID)
		return nil
	}
	if err != nil || !cancelled {
		return err
	}

	orderID := ""
	if settled != nil {
		orderID = settled.ID
		if refund {
			c.refund(ctx, settled)
		}
	}
	c.emit(ctx, notify.AppointmentCancelled, result, orderID, appointment.ReasonHoldExpired)
	return nil
}

// SweepCompletions moves every Confirmed appointment whose end time has been
// reached to Completed. It returns how many it advanced.
func (c *Coordinator) SweepCompletions(ctx context.Context, now time.Time) (int, error) {
	due, err := c.appointments.ListConfirmedEndedBy(ctx, now)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, candidate := range due {
		err := c.withAppointment(ctx, candidate.ID, func(ap *models.Appointment, _ time.Time) error {
			if appointment.Status(ap.Status) != appointment.StatusConfirmed || ap.EndTime.After(now) {
				return nil
			}
			if err := appointment.Complete(ap, now); err != nil {
				return err
			}
			ap.UpdatedAt = now
			if err := c.appointments.UpdateAppointment(ctx, ap); err != nil {
				return err
			}
			completed++
			return nil
		})
		if err != nil {
			c.log.Error("complete appointment failed", "appointment_id", candidate.ID, "error", err)
		}
	}

	c.metrics.ObserveSwept("completed", completed)
	return completed, nil
}
