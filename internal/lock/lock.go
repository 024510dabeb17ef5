// Package lock provides per-key exclusive sections. Unrelated keys never
// contend; the same key is held by at most one caller at a time.
package lock

import (
	"context"
	"fmt"

	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
)

// Locker acquires the exclusive section for key. The returned func releases it
// and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func CounselorKey(counselorID uint) string {
	return fmt.Sprintf("counselor:%d", counselorID)
}

func AppointmentKey(appointmentID string) string {
	return "appointment:" + appointmentID
}

func OrderKey(orderID string) string {
	return "order:" + orderID
}

// CallbackKey serializes provider callbacks for one appointment. It is a
// separate namespace from AppointmentKey because the reconciler calls into the
// coordinator, which takes the appointment section itself.
func CallbackKey(appointmentID string) string {
	return "callback:" + appointmentID
}

// timeout wraps a context error so callers can match both
// httperr.ErrLockTimeout and the context cause.
func timeout(key string, err error) error {
	return fmt.Errorf("lock: %s: %w: %w", key, httperr.ErrLockTimeout, err)
}
