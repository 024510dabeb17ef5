package booking

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/internal/notify"
)

// PaymentOutcome says what a verified payment did to the booking.
type PaymentOutcome string

const (
	OutcomeConfirmed        PaymentOutcome = "confirmed"
	OutcomeAlreadySettled   PaymentOutcome = "already_settled"
	OutcomeRefundedLate     PaymentOutcome = "refunded_late_payment"
	OutcomeNeedsManualCheck PaymentOutcome = "needs_reconciliation"
)

// ConfirmPayment applies a verified successful charge: the order becomes
// Paid, the slot Confirmed and the appointment Confirmed, as one step under
// the appointment's exclusive section.
//
// Money that arrives for an appointment that can no longer be confirmed
// (hold lapsed, or already cancelled) is recorded and refunded.
func (c *Coordinator) ConfirmPayment(
	ctx context.Context,
	appointmentID string,
	providerReference string,
	paidAt time.Time,
) (PaymentOutcome, error) {

	var (
		outcome   PaymentOutcome
		toRefund  *models.Order
		voided    *models.Order
		result    *models.Appointment
		emitTypes []notify.EventType
	)

	err := c.withAppointment(ctx, appointmentID, func(ap *models.Appointment, now time.Time) error {
		result = ap

		o, err := c.orderFor(ctx, ap.ID)
		if err != nil {
			return err
		}
		if o == nil {
			return httperr.ErrNotFound
		}

		switch appointment.Status(ap.Status) {
		case appointment.StatusPending:
			err := c.slots.Confirm(ctx, ap.ID)
			switch {
			case err == nil:
				if _, err := c.orders.MarkPaid(ctx, o.ID, providerReference, paidAt); err != nil {
					return err
				}
				if err := appointment.Confirm(ap, now); err != nil {
					return err
				}
				ap.UpdatedAt = now
				if err := c.appointments.UpdateAppointment(ctx, ap); err != nil {
					return err
				}
				outcome = OutcomeConfirmed
				emitTypes = []notify.EventType{notify.BookingConfirmed}
				return nil

			case errors.Is(err, httperr.ErrHoldNotFound):
				// The hold lapsed before the money arrived.
				if _, err := c.orders.MarkPaid(ctx, o.ID, providerReference, paidAt); err != nil {
					return err
				}
				o, err = c.orders.Get(ctx, o.ID)
				if err != nil {
					return err
				}
				if _, _, err := c.closeOut(ctx, ap, now, appointment.ReasonHoldExpired, appointment.System); err != nil {
					return err
				}
				toRefund = o
				outcome = OutcomeRefundedLate
				emitTypes = []notify.EventType{notify.PaymentReceived, notify.AppointmentCancelled}
				return nil

			default:
				return err
			}

		case appointment.StatusConfirmed, appointment.StatusCompleted:
			if _, err := c.orders.MarkPaid(ctx, o.ID, providerReference, paidAt); err != nil {
				return err
			}
			outcome = OutcomeAlreadySettled
			return nil

		case appointment.StatusCancelled:
			switch order.Status(o.Status) {
			case order.StatusPending:
				if _, err := c.orders.MarkPaid(ctx, o.ID, providerReference, paidAt); err != nil {
					return err
				}
				o, err = c.orders.Get(ctx, o.ID)
				if err != nil {
					return err
				}
				toRefund = o
				outcome = OutcomeRefundedLate
				emitTypes = []notify.EventType{notify.PaymentReceived}
			case order.StatusVoided:
				paid := *o
				paid.ProviderReference = providerReference
				voided = &paid
				outcome = OutcomeNeedsManualCheck
				emitTypes = []notify.EventType{notify.PaymentReceived}
			default:
				outcome = OutcomeAlreadySettled
			}
			return nil
		}

		return httperr.ErrInvalidTransition
	})
	if err != nil {
		if errors.Is(err, httperr.ErrInvalidTransition) {
			c.log.Error("confirm payment hit invalid transition",
				"appointment_id", appointmentID,
				"error", err,
			)
		}
		return "", err
	}

	orderID := ""
	switch {
	case toRefund != nil:
		orderID = toRefund.ID
		c.refund(ctx, toRefund)
	case voided != nil:
		orderID = voided.ID
		c.refundVoided(ctx, voided)
	}

	for _, t := range emitTypes {
		c.emit(ctx, t, result, orderID, result.CancelReason)
	}

	c.log.Info("payment applied",
		"appointment_id", appointmentID,
		"outcome", outcome,
	)
	return outcome, nil
}

// refundVoided returns money captured on an order that had already been
// voided. The order cannot become Paid any more, so it is flagged with the
// refund result for a human to close.
func (c *Coordinator) refundVoided(ctx context.Context, o *models.Order) {
	note := "payment received on voided order"
	ref, err := c.gateway.Refund(ctx, o.ProviderReference, o.Amount)
	if err != nil {
		c.metrics.ObserveGateway("refund", "error")
		note += "; refund failed: " + err.Error()
	} else {
		c.metrics.ObserveGateway("refund", "ok")
		note += "; refunded as " + ref
	}

	if err := c.orders.FlagForReconciliation(ctx, o.ID, note); err != nil {
		c.log.Error("flag order failed", "order_id", o.ID, "error", err)
	}
}
