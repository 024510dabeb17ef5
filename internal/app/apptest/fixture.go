// Package apptest builds an in-memory engine on a fake clock for tests.
package apptest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/counselor-scheduler/internal/app"
	"github.com/BruksfildServices01/counselor-scheduler/internal/clock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/infra/gateway"
	"github.com/BruksfildServices01/counselor-scheduler/internal/infra/memory"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/internal/notify"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/booking"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

const (
	Secret = "test-callback-secret"

	// Counselor charges 100.00 per hour.
	Counselor  uint = 100
	UserA      uint = 1
	UserB      uint = 2
	Unverified uint = 101
)

// Start is 2025-03-01 08:00 UTC, two hours before the standard 10:00 slot.
var Start = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func At(h, m int) time.Time {
	return time.Date(2025, 3, 1, h, m, 0, 0, time.UTC)
}

type Fixture struct {
	T      *testing.T
	Ctx    context.Context
	Engine *app.Engine
	Store  *memory.Store
	Clock  *clock.Fake
	Sink   *notify.MemorySink
}

type Option func(*app.Options)

func WithRepos(fn func(app.Repositories) app.Repositories) Option {
	return func(o *app.Options) { o.Repos = fn(o.Repos) }
}

func New(t *testing.T, opts ...Option) *Fixture {
	t.Helper()

	clk := clock.NewFake(Start)
	store := memory.NewStore()
	store.PutCounselor(models.CounselorProfile{
		UserID:     Counselor,
		Name:       "Dr. Lin",
		PriceCents: 10000,
		IsVerified: true,
		Timezone:   "UTC",
	})
	store.PutCounselor(models.CounselorProfile{
		UserID:     Unverified,
		PriceCents: 10000,
		Timezone:   "UTC",
	})
	sink := &notify.MemorySink{}

	o := app.Options{
		Repos:              app.MemoryRepositories(store),
		Clock:              clk,
		Log:                logging.Discard(),
		Sink:               sink,
		Verifier:           gateway.NewHMACVerifier(Secret),
		HoldTTL:            15 * time.Minute,
		GatewayMaxAttempts: 2,
		GatewayBackoff:     time.Millisecond,
		DefaultTimezone:    "UTC",
		Background:         func(fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Fixture{
		T:      t,
		Ctx:    context.Background(),
		Engine: app.Build(o),
		Store:  store,
		Clock:  clk,
		Sink:   sink,
	}
}

// Book requests a 30 minute session with Counselor starting at start.
func (f *Fixture) Book(user uint, start time.Time) (*booking.BookingResult, error) {
	return f.Engine.Booking.RequestBooking(f.Ctx, booking.BookingInput{
		UserID:      user,
		CounselorID: Counselor,
		StartTime:   start,
		Duration:    30,
	})
}

func (f *Fixture) MustBook(user uint, start time.Time) *booking.BookingResult {
	f.T.Helper()
	res, err := f.Book(user, start)
	require.NoError(f.T, err)
	return res
}

// Callback builds a signed sandbox callback for the order.
func (f *Fixture) Callback(typ payment.CallbackType, o *models.Order, amount int64) ([]byte, string) {
	f.T.Helper()
	body, sig, err := f.Engine.Sandbox.Callback(typ, o.OrderNo, amount, "")
	require.NoError(f.T, err)
	return body, sig
}

// Pay delivers one successful charge callback for the full order amount.
func (f *Fixture) Pay(o *models.Order) payment.Ack {
	f.T.Helper()
	body, sig := f.Callback(payment.ChargeSucceeded, o, o.Amount)
	ack, err := f.Engine.Reconciler.Handle(f.Ctx, body, sig)
	require.NoError(f.T, err)
	return ack
}

// Sweep runs one expiry pass the way the scheduler does.
func (f *Fixture) Sweep() {
	f.T.Helper()
	_, err := f.Engine.Slots.ExpireHolds(f.Ctx, f.Clock.Now(), f.Engine.Booking.OnSlotExpired)
	require.NoError(f.T, err)
}

func (f *Fixture) Appointment(id string) *models.Appointment {
	f.T.Helper()
	ap, err := f.Store.GetAppointment(f.Ctx, id)
	require.NoError(f.T, err)
	return ap
}

func (f *Fixture) Order(id string) *models.Order {
	f.T.Helper()
	o, err := f.Store.GetOrder(f.Ctx, id)
	require.NoError(f.T, err)
	return o
}

// ActiveSlots returns the Held and Confirmed slots of Counselor on the test day.
func (f *Fixture) ActiveSlots() []models.TimeSlot {
	f.T.Helper()
	slots, err := f.Engine.Slots.Snapshot(f.Ctx, Counselor, At(0, 0), At(23, 59))
	require.NoError(f.T, err)
	return slots
}
