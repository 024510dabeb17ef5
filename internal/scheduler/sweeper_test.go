package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/counselor-scheduler/internal/app"
	"github.com/BruksfildServices01/counselor-scheduler/internal/app/apptest"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/internal/scheduler"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

func newSweeper(f *apptest.Fixture) *scheduler.Sweeper {
	e := f.Engine
	return scheduler.NewSweeper(e.Slots, e.Booking, e.Reconciler, f.Clock, logging.Discard())
}

func TestRunOnceExpiresAndCompletes(t *testing.T) {
	f := apptest.New(t)
	s := newSweeper(f)

	unpaid := f.MustBook(apptest.UserA, apptest.At(10, 0))
	paid := f.MustBook(apptest.UserB, apptest.At(11, 0))
	f.Pay(paid.Order)

	f.Clock.Advance(16 * time.Minute)
	res := s.RunOnce(f.Ctx)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, 0, res.Completed)
	assert.Equal(t, string(appointment.StatusCancelled), f.Appointment(unpaid.Appointment.ID).Status)
	assert.Equal(t, string(order.StatusVoided), f.Order(unpaid.Order.ID).Status)

	f.Clock.Set(apptest.At(11, 30))
	res = s.RunOnce(f.Ctx)
	assert.Equal(t, 0, res.Expired)
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, string(appointment.StatusCompleted), f.Appointment(paid.Appointment.ID).Status)
}

// flakyOrders fails the next n order updates.
type flakyOrders struct {
	order.Repository
	failures atomic.Int32
}

func (f *flakyOrders) UpdateOrder(ctx context.Context, o *models.Order) error {
	if f.failures.Add(-1) >= 0 {
		return errors.New("db blip")
	}
	return f.Repository.UpdateOrder(ctx, o)
}

func TestExpiryRetriesAfterSettleFailure(t *testing.T) {
	var orders *flakyOrders
	f := apptest.New(t, apptest.WithRepos(func(r app.Repositories) app.Repositories {
		orders = &flakyOrders{Repository: r.Orders}
		r.Orders = orders
		return r
	}))
	s := newSweeper(f)

	res := f.MustBook(apptest.UserA, apptest.At(10, 0))

	orders.failures.Store(1)
	f.Clock.Advance(16 * time.Minute)
	first := s.RunOnce(f.Ctx)
	assert.Equal(t, 0, first.Expired)
	assert.Equal(t, string(appointment.StatusPending), f.Appointment(res.Appointment.ID).Status)
	assert.Equal(t, string(order.StatusPending), f.Order(res.Order.ID).Status)
	require.Len(t, f.ActiveSlots(), 1, "hold must survive a failed settle")

	f.Clock.Advance(time.Hour)
	second := s.RunOnce(f.Ctx)
	assert.Equal(t, 1, second.Expired)
	assert.Equal(t, string(appointment.StatusCancelled), f.Appointment(res.Appointment.ID).Status)
	assert.Equal(t, string(order.StatusVoided), f.Order(res.Order.ID).Status)
	assert.Empty(t, f.ActiveSlots())

	// the freed slot is bookable again
	f.MustBook(apptest.UserB, apptest.At(10, 0))
}

func TestRunOncePurgesDaily(t *testing.T) {
	f := apptest.New(t)
	s := newSweeper(f)

	res := f.MustBook(apptest.UserA, apptest.At(10, 0))
	f.Pay(res.Order)

	f.Clock.Advance(31 * 24 * time.Hour)
	first := s.RunOnce(f.Ctx)
	assert.Equal(t, int64(1), first.Purged)

	f.Clock.Advance(time.Hour)
	second := s.RunOnce(f.Ctx)
	assert.Equal(t, int64(0), second.Purged)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := apptest.New(t)
	s := newSweeper(f).WithInterval(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "sweeper did not stop")
	}
}
