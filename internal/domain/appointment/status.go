package appointment

import "github.com/BruksfildServices01/counselor-scheduler/internal/httperr"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ===============================
// Validations
// ===============================

// CanConfirm: only a pending appointment can be confirmed by a payment.
func CanConfirm(current Status) error {
	if current != StatusPending {
		return httperr.ErrInvalidTransition
	}
	return nil
}

// CanCancel: pending or confirmed.
func CanCancel(current Status) error {
	if current != StatusPending && current != StatusConfirmed {
		return httperr.ErrInvalidTransition
	}
	return nil
}

func CanComplete(current Status) error {
	if current != StatusConfirmed {
		return httperr.ErrInvalidTransition
	}
	return nil
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func InitialStatus() Status {
	return StatusPending
}
