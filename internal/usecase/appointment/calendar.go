// Package appointment holds the counselor calendar read models: a day or a
// month of appointments, bounded in the counselor's local time.
package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/counselor-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/dto"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
)

// Locator resolves the counselor's time zone.
type Locator interface {
	LocationFor(ctx context.Context, counselorID uint) (*time.Location, error)
}

type ListAppointmentsByDate struct {
	repo    domain.Repository
	locator Locator
}

func NewListAppointmentsByDate(
	repo domain.Repository,
	locator Locator,
) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{
		repo:    repo,
		locator: locator,
	}
}

// Execute lists the counselor's appointments on a local calendar day
// given as YYYY-MM-DD.
func (uc *ListAppointmentsByDate) Execute(
	ctx context.Context,
	counselorID uint,
	date string,
) ([]dto.AppointmentListDTO, error) {

	loc, err := uc.locator.LocationFor(ctx, counselorID)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, httperr.ErrInvalidInput
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	return list(ctx, uc.repo, counselorID, start, end)
}

type ListAppointmentsByMonth struct {
	repo    domain.Repository
	locator Locator
}

func NewListAppointmentsByMonth(
	repo domain.Repository,
	locator Locator,
) *ListAppointmentsByMonth {
	return &ListAppointmentsByMonth{
		repo:    repo,
		locator: locator,
	}
}

func (uc *ListAppointmentsByMonth) Execute(
	ctx context.Context,
	counselorID uint,
	year int,
	month int,
) ([]dto.AppointmentListDTO, error) {

	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		return nil, httperr.ErrInvalidInput
	}

	loc, err := uc.locator.LocationFor(ctx, counselorID)
	if err != nil {
		return nil, err
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	return list(ctx, uc.repo, counselorID, start, end)
}

func list(
	ctx context.Context,
	repo domain.Repository,
	counselorID uint,
	start time.Time,
	end time.Time,
) ([]dto.AppointmentListDTO, error) {

	appointments, err := repo.ListForCounselorBetween(ctx, counselorID, start, end)
	if err != nil {
		return nil, err
	}
	return dto.AppointmentList(appointments), nil
}
