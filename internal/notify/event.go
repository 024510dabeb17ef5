// Package notify forwards booking lifecycle events to external channels.
// Delivery is best effort: a failing sink never affects booking state.
package notify

import (
	"context"
	"time"
)

type EventType string

const (
	BookingConfirmed     EventType = "BookingConfirmed"
	PaymentReceived      EventType = "PaymentReceived"
	AppointmentCancelled EventType = "AppointmentCancelled"
)

type Event struct {
	Type          EventType `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	OrderID       string    `json:"order_id,omitempty"`
	UserID        uint      `json:"user_id,omitempty"`
	CounselorID   uint      `json:"counselor_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type Sink interface {
	Emit(ctx context.Context, ev Event) error
}
