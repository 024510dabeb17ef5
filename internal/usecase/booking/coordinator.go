// Package booking owns Appointment.Status and orchestrates the slot and order
// ledgers. Every appointment mutation runs inside the appointment's exclusive
// section; gateway I/O never does.
package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/clock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/lock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/metrics"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/internal/notify"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/orderledger"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/slotledger"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

const (
	DefaultDuration = 60
	MinDuration     = 30
	MaxDuration     = 120
)

type Deps struct {
	Appointments appointment.Repository
	Slots        *slotledger.Ledger
	Orders       *orderledger.Ledger
	Directory    schedule.Directory
	Availability schedule.Checker
	Gateway      payment.Gateway
	Sink         notify.Sink
	Locks        lock.Locker
	Clock        clock.Clock
	Log          *logging.Logger
	Metrics      *metrics.EngineMetrics

	HoldTTL time.Duration

	// Background runs charge initiation. Nil starts a goroutine.
	Background func(fn func())
}

type Coordinator struct {
	appointments appointment.Repository
	slots        *slotledger.Ledger
	orders       *orderledger.Ledger
	directory    schedule.Directory
	availability schedule.Checker
	gateway      payment.Gateway
	sink         notify.Sink
	locks        lock.Locker
	clock        clock.Clock
	log          *logging.Logger
	metrics      *metrics.EngineMetrics
	holdTTL      time.Duration

	background func(fn func())
	inflight   sync.WaitGroup
}

func NewCoordinator(d Deps) *Coordinator {
	if d.Log == nil {
		d.Log = logging.Default()
	}
	if d.HoldTTL <= 0 {
		d.HoldTTL = 15 * time.Minute
	}
	if d.Background == nil {
		d.Background = func(fn func()) { go fn() }
	}
	return &Coordinator{
		appointments: d.Appointments,
		slots:        d.Slots,
		orders:       d.Orders,
		directory:    d.Directory,
		availability: d.Availability,
		gateway:      d.Gateway,
		sink:         d.Sink,
		locks:        d.Locks,
		clock:        d.Clock,
		log:          d.Log.With("component", "booking"),
		metrics:      d.Metrics,
		holdTTL:      d.HoldTTL,
		background:   d.Background,
	}
}

func (c *Coordinator) spawn(fn func()) {
	c.inflight.Add(1)
	c.background(func() {
		defer c.inflight.Done()
		fn()
	})
}

// Drain waits for charges still being opened.
func (c *Coordinator) Drain() {
	c.inflight.Wait()
}

// withAppointment runs fn inside the appointment's exclusive section on a
// fresh read of the appointment.
func (c *Coordinator) withAppointment(
	ctx context.Context,
	appointmentID string,
	fn func(ap *models.Appointment, now time.Time) error,
) error {

	unlock, err := c.locks.Lock(ctx, lock.AppointmentKey(appointmentID))
	if err != nil {
		return err
	}
	defer unlock()

	ap, err := c.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}

	return fn(ap, c.clock.Now())
}

// orderFor returns nil when the appointment never got an order.
func (c *Coordinator) orderFor(ctx context.Context, appointmentID string) (*models.Order, error) {
	o, err := c.orders.GetByAppointment(ctx, appointmentID)
	if errors.Is(err, httperr.ErrNotFound) {
		return nil, nil
	}
	return o, err
}

func (c *Coordinator) emit(ctx context.Context, t notify.EventType, ap *models.Appointment, orderID, reason string) {
	if c.sink == nil {
		return
	}
	ev := notify.Event{
		Type:          t,
		AppointmentID: ap.ID,
		OrderID:       orderID,
		UserID:        ap.UserID,
		CounselorID:   ap.CounselorID,
		Reason:        reason,
		Timestamp:     c.clock.Now(),
	}
	if err := c.sink.Emit(ctx, ev); err != nil {
		c.log.Warn("notify failed", "type", t, "appointment_id", ap.ID, "error", err)
	}
}

// refund asks the gateway to return a paid order's money and records the
// outcome. Exhausted retries leave the order Paid and flagged.
func (c *Coordinator) refund(ctx context.Context, o *models.Order) {
	ref, err := c.gateway.Refund(ctx, o.ProviderReference, o.Amount)
	if err != nil {
		c.metrics.ObserveGateway("refund", "error")
		c.log.Error("refund failed", "order_id", o.ID, "error", err)
		if ferr := c.orders.FlagForReconciliation(ctx, o.ID, "refund failed: "+err.Error()); ferr != nil {
			c.log.Error("flag order failed", "order_id", o.ID, "error", ferr)
		}
		return
	}
	c.metrics.ObserveGateway("refund", "ok")

	if err := c.orders.MarkRefunded(ctx, o.ID, ref); err != nil {
		c.log.Error("mark refunded failed", "order_id", o.ID, "refund_reference", ref, "error", err)
	}
}
