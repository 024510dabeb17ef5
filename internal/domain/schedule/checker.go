package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/internal/timezone"
)

// Directory is the counselor profile store, external to the booking engine.
type Directory interface {
	GetCounselor(ctx context.Context, userID uint) (*models.CounselorProfile, error)

	// GetWorkingHours returns httperr.ErrNotFound when the weekday is not configured.
	GetWorkingHours(ctx context.Context, counselorID uint, weekday int) (*models.WorkingHours, error)
}

// Checker validates a requested range against published availability.
type Checker interface {
	Available(ctx context.Context, counselorID uint, start, end time.Time) error
}

type HoursChecker struct {
	dir      Directory
	fallback string
}

func NewHoursChecker(dir Directory, fallbackTZ string) *HoursChecker {
	return &HoursChecker{dir: dir, fallback: fallbackTZ}
}

// HoursFor resolves the hours and location a counselor works in on the
// weekday of day.
func (c *HoursChecker) HoursFor(ctx context.Context, counselorID uint, day time.Time) (Hours, *time.Location, error) {
	loc, err := c.LocationFor(ctx, counselorID)
	if err != nil {
		return Hours{}, nil, err
	}
	local := day.In(loc)

	wh, err := c.dir.GetWorkingHours(ctx, counselorID, int(local.Weekday()))
	switch {
	case errors.Is(err, httperr.ErrNotFound):
		return DefaultHours, loc, nil
	case err != nil:
		return Hours{}, nil, fmt.Errorf("schedule: working hours: %w", err)
	}

	h, ok := FromWorkingHours(wh)
	if !ok {
		return Hours{}, loc, httperr.ErrOutsideAvailability
	}
	return h, loc, nil
}

// LocationFor returns the counselor's configured zone, or the fallback.
func (c *HoursChecker) LocationFor(ctx context.Context, counselorID uint) (*time.Location, error) {
	profile, err := c.dir.GetCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}
	return timezone.LocationOr(profile.Timezone, c.fallback), nil
}

func (c *HoursChecker) Available(ctx context.Context, counselorID uint, start, end time.Time) error {
	h, loc, err := c.HoursFor(ctx, counselorID, start)
	if err != nil {
		return err
	}

	if !h.Within(start.In(loc), end.In(loc)) {
		return httperr.ErrOutsideAvailability
	}
	return nil
}
