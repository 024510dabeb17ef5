// Package memory keeps every repository port in process. It backs tests and
// STORAGE=memory dev runs; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/slot"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

type hoursKey struct {
	counselorID uint
	weekday     int
}

// Store returns copies from every read so callers cannot mutate stored rows
// without going through an update.
type Store struct {
	mu sync.RWMutex

	slots        map[string]*models.TimeSlot
	appointments map[string]*models.Appointment
	orders       map[string]*models.Order
	callbacks    map[string]*models.CallbackRecord
	counselors   map[uint]*models.CounselorProfile
	hours        map[hoursKey]*models.WorkingHours
	audit        []models.AuditLog
}

func NewStore() *Store {
	return &Store{
		slots:        make(map[string]*models.TimeSlot),
		appointments: make(map[string]*models.Appointment),
		orders:       make(map[string]*models.Order),
		callbacks:    make(map[string]*models.CallbackRecord),
		counselors:   make(map[uint]*models.CounselorProfile),
		hours:        make(map[hoursKey]*models.WorkingHours),
	}
}

// --------------------------------------------------
// Slots
// --------------------------------------------------

func (s *Store) InsertHold(ctx context.Context, ts *models.TimeSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.slots {
		if existing.HoldOwner == ts.HoldOwner {
			return httperr.ErrInvalidInput
		}
		if existing.CounselorID != ts.CounselorID || !slot.HoldState(existing.HoldState).Active() {
			continue
		}
		if slot.Overlaps(existing.StartTime, existing.EndTime, ts.StartTime, ts.EndTime) {
			return httperr.ErrSlotUnavailable
		}
	}

	cp := *ts
	s.slots[ts.ID] = &cp
	return nil
}

func (s *Store) GetByOwner(ctx context.Context, owner string) (*models.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ts := range s.slots {
		if ts.HoldOwner == owner {
			cp := *ts
			return &cp, nil
		}
	}
	return nil, httperr.ErrNotFound
}

func (s *Store) UpdateSlot(ctx context.Context, ts *models.TimeSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[ts.ID]; !ok {
		return httperr.ErrNotFound
	}
	cp := *ts
	s.slots[ts.ID] = &cp
	return nil
}

func (s *Store) ListExpiredHolds(ctx context.Context, now time.Time) ([]models.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.TimeSlot{}
	for _, ts := range s.slots {
		if ts.HoldState == string(slot.StateHeld) && ts.HoldExpiresAt != nil && ts.HoldExpiresAt.Before(now) {
			out = append(out, *ts)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *Store) ListActive(ctx context.Context, counselorID uint, from, to time.Time) ([]models.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.TimeSlot{}
	for _, ts := range s.slots {
		if ts.CounselorID != counselorID || !slot.HoldState(ts.HoldState).Active() {
			continue
		}
		if slot.Overlaps(ts.StartTime, ts.EndTime, from, to) {
			out = append(out, *ts)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// --------------------------------------------------
// Appointments
// --------------------------------------------------

func (s *Store) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[ap.ID]; ok {
		return httperr.ErrInvalidInput
	}
	cp := *ap
	s.appointments[ap.ID] = &cp
	return nil
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ap, ok := s.appointments[id]
	if !ok {
		return nil, httperr.ErrNotFound
	}
	cp := *ap
	return &cp, nil
}

func (s *Store) UpdateAppointment(ctx context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[ap.ID]; !ok {
		return httperr.ErrNotFound
	}
	cp := *ap
	s.appointments[ap.ID] = &cp
	return nil
}

func (s *Store) ListConfirmedEndedBy(ctx context.Context, now time.Time) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Appointment{}
	for _, ap := range s.appointments {
		if ap.Status == string(appointment.StatusConfirmed) && !ap.EndTime.After(now) {
			out = append(out, *ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out, nil
}

func (s *Store) ListForCounselorBetween(ctx context.Context, counselorID uint, from, to time.Time) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Appointment{}
	for _, ap := range s.appointments {
		if ap.CounselorID == counselorID && !ap.ScheduledTime.Before(from) && ap.ScheduledTime.Before(to) {
			out = append(out, *ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out, nil
}

func (s *Store) ListForParticipant(ctx context.Context, userID uint) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Appointment{}
	for _, ap := range s.appointments {
		if ap.UserID == userID || ap.CounselorID == userID {
			out = append(out, *ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --------------------------------------------------
// Orders
// --------------------------------------------------

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orders {
		if existing.AppointmentID == o.AppointmentID || existing.OrderNo == o.OrderNo {
			return httperr.ErrDuplicateOrder
		}
	}
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, httperr.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *Store) findOrder(match func(*models.Order) bool) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if match(o) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, httperr.ErrNotFound
}

func (s *Store) GetOrderByNo(ctx context.Context, orderNo string) (*models.Order, error) {
	return s.findOrder(func(o *models.Order) bool { return o.OrderNo == orderNo })
}

func (s *Store) GetOrderByAppointment(ctx context.Context, appointmentID string) (*models.Order, error) {
	return s.findOrder(func(o *models.Order) bool { return o.AppointmentID == appointmentID })
}

func (s *Store) UpdateOrder(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; !ok {
		return httperr.ErrNotFound
	}
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *Store) ListOrders(ctx context.Context, f order.ListFilter) ([]models.Order, int64, error) {
	f = f.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.Order{}
	for _, o := range s.orders {
		if f.UserID != 0 && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != string(f.Status) {
			continue
		}
		matched = append(matched, *o)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := f.Offset()
	if start >= len(matched) {
		return []models.Order{}, total, nil
	}
	end := start + f.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// --------------------------------------------------
// Callbacks
// --------------------------------------------------

func (s *Store) GetCallback(ctx context.Context, dedupKey string) (*models.CallbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.callbacks[dedupKey]
	if !ok {
		return nil, httperr.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *Store) InsertCallback(ctx context.Context, rec *models.CallbackRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.callbacks[rec.DedupKey]; ok {
		return false, nil
	}
	cp := *rec
	s.callbacks[rec.DedupKey] = &cp
	return true, nil
}

func (s *Store) PurgeCallbacksBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, rec := range s.callbacks {
		if rec.ProcessedAt.Before(cutoff) {
			delete(s.callbacks, k)
			n++
		}
	}
	return n, nil
}

// --------------------------------------------------
// Counselor directory
// --------------------------------------------------

func (s *Store) PutCounselor(p models.CounselorProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counselors[p.UserID] = &p
}

func (s *Store) PutWorkingHours(wh models.WorkingHours) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hours[hoursKey{wh.CounselorID, wh.Weekday}] = &wh
}

func (s *Store) GetCounselor(ctx context.Context, userID uint) (*models.CounselorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.counselors[userID]
	if !ok {
		return nil, httperr.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetWorkingHours(ctx context.Context, counselorID uint, weekday int) (*models.WorkingHours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wh, ok := s.hours[hoursKey{counselorID, weekday}]
	if !ok {
		return nil, httperr.ErrNotFound
	}
	cp := *wh
	return &cp, nil
}

// --------------------------------------------------
// Audit
// --------------------------------------------------

func (s *Store) WriteAudit(ctx context.Context, row *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, *row)
	return nil
}

func (s *Store) AuditRows() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditLog(nil), s.audit...)
}

// Compile-time checks
var (
	_ slot.Repository        = (*Store)(nil)
	_ appointment.Repository = (*Store)(nil)
	_ order.Repository       = (*Store)(nil)
	_ payment.CallbackStore  = (*Store)(nil)
	_ schedule.Directory     = (*Store)(nil)
)
