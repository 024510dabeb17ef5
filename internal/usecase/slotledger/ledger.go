// Package slotledger owns TimeSlot.HoldState. It knows calendars, not money.
package slotledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/counselor-scheduler/internal/clock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/slot"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/lock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/metrics"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

// Ledger serializes every mutation per counselor.
type Ledger struct {
	repo    slot.Repository
	locks   lock.Locker
	clock   clock.Clock
	log     *logging.Logger
	metrics *metrics.EngineMetrics
}

func New(
	repo slot.Repository,
	locks lock.Locker,
	clk clock.Clock,
	log *logging.Logger,
	m *metrics.EngineMetrics,
) *Ledger {
	if log == nil {
		log = logging.Default()
	}
	return &Ledger{
		repo:    repo,
		locks:   locks,
		clock:   clk,
		log:     log.With("component", "slotledger"),
		metrics: m,
	}
}

// Hold grants [start, end) to owner for ttl unless an active slot of the same
// counselor overlaps it. A conflict is reported in the result, not as an error.
func (l *Ledger) Hold(
	ctx context.Context,
	counselorID uint,
	start time.Time,
	end time.Time,
	owner string,
	ttl time.Duration,
) (slot.HoldResult, error) {

	if owner == "" || !start.Before(end) || ttl <= 0 {
		return slot.HoldResult{}, httperr.ErrInvalidInput
	}

	unlock, err := l.locks.Lock(ctx, lock.CounselorKey(counselorID))
	if err != nil {
		return slot.HoldResult{}, err
	}
	defer unlock()

	now := l.clock.Now()
	expires := now.Add(ttl)
	ts := &models.TimeSlot{
		ID:            uuid.NewString(),
		CounselorID:   counselorID,
		StartTime:     start,
		EndTime:       end,
		HoldState:     string(slot.StateHeld),
		HoldOwner:     owner,
		HoldExpiresAt: &expires,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = l.repo.InsertHold(ctx, ts)
	switch {
	case errors.Is(err, httperr.ErrSlotUnavailable):
		l.metrics.ObserveHold(false)
		l.log.Info("hold conflict",
			"counselor_id", counselorID,
			"start", start,
			"end", end,
		)
		return slot.HoldResult{Granted: false}, nil
	case err != nil:
		return slot.HoldResult{}, fmt.Errorf("slotledger: insert hold: %w", err)
	}

	l.metrics.ObserveHold(true)
	return slot.HoldResult{Granted: true, Slot: ts}, nil
}

// ownedSlot loads the slot for owner and takes its counselor section, then
// re-reads so the caller sees the state as of acquiring the lock.
func (l *Ledger) ownedSlot(ctx context.Context, owner string) (*models.TimeSlot, func(), error) {
	ts, err := l.repo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, nil, err
	}

	unlock, err := l.locks.Lock(ctx, lock.CounselorKey(ts.CounselorID))
	if err != nil {
		return nil, nil, err
	}

	ts, err = l.repo.GetByOwner(ctx, owner)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return ts, unlock, nil
}

// Confirm moves owner's hold from Held to Confirmed. A lapsed hold is released
// on the spot and reported as HoldNotFound. Confirming twice succeeds.
func (l *Ledger) Confirm(ctx context.Context, owner string) error {
	ts, unlock, err := l.ownedSlot(ctx, owner)
	if errors.Is(err, httperr.ErrNotFound) {
		return httperr.ErrHoldNotFound
	}
	if err != nil {
		return err
	}
	defer unlock()

	now := l.clock.Now()

	switch slot.HoldState(ts.HoldState) {
	case slot.StateConfirmed:
		return nil
	case slot.StateFree:
		return httperr.ErrHoldNotFound
	}

	if ts.HoldExpiresAt != nil && ts.HoldExpiresAt.Before(now) {
		l.free(ts, now)
		if err := l.repo.UpdateSlot(ctx, ts); err != nil {
			return fmt.Errorf("slotledger: release lapsed hold: %w", err)
		}
		l.log.Info("confirm on lapsed hold", "owner", owner)
		return httperr.ErrHoldNotFound
	}

	ts.HoldState = string(slot.StateConfirmed)
	ts.HoldExpiresAt = nil
	ts.UpdatedAt = now
	if err := l.repo.UpdateSlot(ctx, ts); err != nil {
		return fmt.Errorf("slotledger: confirm: %w", err)
	}
	return nil
}

// Release frees owner's slot. Unknown owners and free slots are no-ops.
func (l *Ledger) Release(ctx context.Context, owner string) error {
	ts, unlock, err := l.ownedSlot(ctx, owner)
	if errors.Is(err, httperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	defer unlock()

	if !slot.HoldState(ts.HoldState).Active() {
		return nil
	}

	l.free(ts, l.clock.Now())
	if err := l.repo.UpdateSlot(ctx, ts); err != nil {
		return fmt.Errorf("slotledger: release: %w", err)
	}
	return nil
}

// Settler closes out the appointment that owns a lapsed hold. It runs before
// the slot is freed; an error keeps the slot Held so the next sweep retries.
type Settler func(ctx context.Context, ev slot.Expired) error

// ExpireHolds frees every Held slot whose expiry is before now and reports
// each one. When settle is set each owner is settled first and its slot freed
// only once that succeeded. A slot confirmed in between is left alone.
func (l *Ledger) ExpireHolds(ctx context.Context, now time.Time, settle Settler) ([]slot.Expired, error) {
	candidates, err := l.repo.ListExpiredHolds(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("slotledger: list expired: %w", err)
	}

	out := make([]slot.Expired, 0, len(candidates))
	for _, c := range candidates {
		ev := slot.Expired{
			AppointmentID: c.HoldOwner,
			CounselorID:   c.CounselorID,
			StartTime:     c.StartTime,
			EndTime:       c.EndTime,
		}

		if settle != nil {
			if err := settle(ctx, ev); err != nil {
				l.log.Error("settle lapsed hold failed, slot kept",
					"owner", c.HoldOwner,
					"error", err,
				)
				continue
			}
		}

		freed, err := l.expireOne(ctx, c.HoldOwner, now)
		if err != nil {
			l.log.Error("expire hold failed", "owner", c.HoldOwner, "error", err)
			continue
		}
		// A settler normally frees the slot itself.
		if freed || settle != nil {
			out = append(out, ev)
		}
	}

	l.metrics.ObserveSwept("expired", len(out))
	return out, nil
}

func (l *Ledger) expireOne(ctx context.Context, owner string, now time.Time) (bool, error) {
	ts, unlock, err := l.ownedSlot(ctx, owner)
	if err != nil {
		return false, err
	}
	defer unlock()

	if ts.HoldState != string(slot.StateHeld) || ts.HoldExpiresAt == nil || !ts.HoldExpiresAt.Before(now) {
		return false, nil
	}

	l.free(ts, now)
	if err := l.repo.UpdateSlot(ctx, ts); err != nil {
		return false, err
	}
	return true, nil
}

// Snapshot returns the Held and Confirmed slots of a counselor overlapping
// [from, to).
func (l *Ledger) Snapshot(ctx context.Context, counselorID uint, from, to time.Time) ([]models.TimeSlot, error) {
	return l.repo.ListActive(ctx, counselorID, from, to)
}

func (l *Ledger) free(ts *models.TimeSlot, now time.Time) {
	ts.HoldState = string(slot.StateFree)
	ts.HoldExpiresAt = nil
	ts.UpdatedAt = now
}
