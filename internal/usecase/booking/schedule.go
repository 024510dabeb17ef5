package booking

import (
	"context"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/clock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/timezone"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/slotledger"
)

type ScheduleInput struct {
	CounselorID uint
	Date        string
	Duration    int
}

type Schedule struct {
	CounselorID uint              `json:"counselor_id"`
	Date        string            `json:"date"`
	Duration    int               `json:"duration"`
	Timezone    string            `json:"timezone"`
	Slots       []schedule.Window `json:"slots"`
}

// GetSchedule lists the bookable windows of one counselor-local day.
type GetSchedule struct {
	hours *schedule.HoursChecker
	slots *slotledger.Ledger
	clock clock.Clock
}

func NewGetSchedule(hours *schedule.HoursChecker, slots *slotledger.Ledger, clk clock.Clock) *GetSchedule {
	return &GetSchedule{hours: hours, slots: slots, clock: clk}
}

// Execute returns working hours minus Held and Confirmed slots minus the past.
func (uc *GetSchedule) Execute(ctx context.Context, in ScheduleInput) (*Schedule, error) {
	if in.Duration == 0 {
		in.Duration = DefaultDuration
	}
	if in.Duration < MinDuration || in.Duration > MaxDuration {
		return nil, httperr.ErrInvalidInput
	}

	loc, err := uc.hours.LocationFor(ctx, in.CounselorID)
	if err != nil {
		return nil, err
	}

	day, err := timezone.ParseDate(in.Date, loc)
	if err != nil {
		return nil, httperr.ErrInvalidInput
	}

	out := &Schedule{
		CounselorID: in.CounselorID,
		Date:        in.Date,
		Duration:    in.Duration,
		Timezone:    loc.String(),
		Slots:       []schedule.Window{},
	}

	h, _, err := uc.hours.HoursFor(ctx, in.CounselorID, day)
	if httperr.IsBusiness(err, httperr.CodeOutsideAvailability) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	active, err := uc.slots.Snapshot(ctx, in.CounselorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	busy := make([]schedule.Window, 0, len(active))
	for _, s := range active {
		busy = append(busy, schedule.Window{Start: s.StartTime.In(loc), End: s.EndTime.In(loc)})
	}

	now := uc.clock.Now()
	for _, w := range h.FreeStarts(day, time.Duration(in.Duration)*time.Minute, busy) {
		if w.Start.After(now) {
			out.Slots = append(out.Slots, w)
		}
	}
	return out, nil
}
