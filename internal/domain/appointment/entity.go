package appointment

import (
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

// Cancellation reasons recorded on the appointment.
const (
	ReasonRequested     = "requested"
	ReasonHoldExpired   = "hold_expired"
	ReasonPaymentFailed = "payment_failed"
	ReasonOrderFailed   = "order_failed"
	ReasonRefund        = "refund_requested"
)

// ===============================
// Domain Actions
// ===============================

func Confirm(ap *models.Appointment, now time.Time) error {
	if err := CanConfirm(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusConfirmed)
	ap.ConfirmedAt = &now
	return nil
}

func Cancel(ap *models.Appointment, now time.Time, reason string, by Actor) error {
	if err := CanCancel(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	ap.CancelReason = reason
	ap.CancelledBy = by.String()
	return nil
}

func Complete(ap *models.Appointment, now time.Time) error {
	if err := CanComplete(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return nil
}

// EndOf returns scheduled time plus duration.
func EndOf(start time.Time, durationMin int) time.Time {
	return start.Add(time.Duration(durationMin) * time.Minute)
}
