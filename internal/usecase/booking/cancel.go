package booking

import (
	"context"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/internal/notify"
)

// Cancel cancels a Pending or Confirmed appointment before it starts. The
// slot is released, a Pending order voided and a Paid order refunded.
// Cancelling an already cancelled appointment returns it unchanged.
// The system actor may cancel at any time; reason defaults to "requested".
func (c *Coordinator) Cancel(
	ctx context.Context,
	appointmentID string,
	actor appointment.Actor,
	reason string,
) (*models.Appointment, error) {

	if reason == "" {
		reason = appointment.ReasonRequested
	}

	var (
		result    *models.Appointment
		settled   *models.Order
		refund    bool
		cancelled bool
	)

	err := c.withAppointment(ctx, appointmentID, func(ap *models.Appointment, now time.Time) error {
		result = ap

		by, err := authorize(ap, actor)
		if err != nil {
			return err
		}

		switch appointment.Status(ap.Status) {
		case appointment.StatusCancelled:
			c.releaseSlot(ctx, ap.ID)
			return nil
		case appointment.StatusCompleted:
			return httperr.ErrInvalidTransition
		}

		if by.Kind != appointment.ActorSystem && !now.Before(ap.ScheduledTime) {
			return httperr.ErrTooLate
		}

		settled, refund, err = c.closeOut(ctx, ap, now, reason, by)
		if err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !cancelled {
		return result, nil
	}

	c.log.Info("appointment cancelled",
		"appointment_id", result.ID,
		"by", result.CancelledBy,
		"reason", reason,
	)

	orderID := ""
	if settled != nil {
		orderID = settled.ID
		if refund {
			c.refund(ctx, settled)
		}
	}
	c.emit(ctx, notify.AppointmentCancelled, result, orderID, reason)

	return result, nil
}

// closeOut settles the order, marks the appointment Cancelled and then
// releases the slot. Must run inside the appointment's exclusive section.
//
// The slot goes last: a failure before it leaves the hold in place, so the
// expiry sweep or a repeated cancel finds the appointment again. It returns
// the appointment's order, with refund set when it was Paid and needs a
// refund once the section is left.
func (c *Coordinator) closeOut(
	ctx context.Context,
	ap *models.Appointment,
	now time.Time,
	reason string,
	by appointment.Actor,
) (o *models.Order, refund bool, err error) {

	if err := appointment.CanCancel(appointment.Status(ap.Status)); err != nil {
		return nil, false, err
	}

	o, err = c.orderFor(ctx, ap.ID)
	if err != nil {
		return nil, false, err
	}

	if o != nil {
		switch order.Status(o.Status) {
		case order.StatusPending:
			if err := c.orders.VoidPending(ctx, o.ID); err != nil {
				return nil, false, err
			}
		case order.StatusPaid:
			refund = true
		}
	}

	if err := appointment.Cancel(ap, now, reason, by); err != nil {
		return nil, false, err
	}
	ap.UpdatedAt = now
	if err := c.appointments.UpdateAppointment(ctx, ap); err != nil {
		return nil, false, err
	}

	c.releaseSlot(ctx, ap.ID)
	return o, refund, nil
}

// releaseSlot frees a cancelled appointment's slot. A failure is only logged:
// a lapsed hold is freed by the next expiry sweep and cancelling again
// retries the release.
func (c *Coordinator) releaseSlot(ctx context.Context, appointmentID string) {
	if err := c.slots.Release(ctx, appointmentID); err != nil {
		c.log.Error("release slot failed", "appointment_id", appointmentID, "error", err)
	}
}

// authorize resolves which participant is acting. Only the client, the
// counselor or the system may cancel.
func authorize(ap *models.Appointment, actor appointment.Actor) (appointment.Actor, error) {
	switch {
	case actor.Kind == appointment.ActorSystem:
		return actor, nil
	case actor.UserID == ap.UserID:
		return appointment.Actor{Kind: appointment.ActorUser, UserID: actor.UserID}, nil
	case actor.UserID == ap.CounselorID:
		return appointment.Actor{Kind: appointment.ActorCounselor, UserID: actor.UserID}, nil
	}
	return appointment.Actor{}, httperr.ErrForbidden
}
