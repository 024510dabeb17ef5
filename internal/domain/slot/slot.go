package slot

import (
	"context"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

type HoldState string

const (
	StateFree      HoldState = "free"
	StateHeld      HoldState = "held"
	StateConfirmed HoldState = "confirmed"
)

// Active reports whether a slot in this state blocks other holds.
func (s HoldState) Active() bool {
	return s == StateHeld || s == StateConfirmed
}

// Overlaps is half-open interval intersection: [aStart, aEnd) ∩ [bStart, bEnd).
// Touching boundaries do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

type HoldResult struct {
	Granted bool
	Slot    *models.TimeSlot
}

// Expired is reported by a sweep for every hold it released.
type Expired struct {
	AppointmentID string
	CounselorID   uint
	StartTime     time.Time
	EndTime       time.Time
}

type Repository interface {
	// InsertHold stores a held slot unless an active slot of the same
	// counselor overlaps it, in which case it returns httperr.ErrSlotUnavailable.
	InsertHold(ctx context.Context, s *models.TimeSlot) error

	GetByOwner(ctx context.Context, owner string) (*models.TimeSlot, error)

	UpdateSlot(ctx context.Context, s *models.TimeSlot) error

	ListExpiredHolds(ctx context.Context, now time.Time) ([]models.TimeSlot, error)

	ListActive(ctx context.Context, counselorID uint, from, to time.Time) ([]models.TimeSlot, error)
}
