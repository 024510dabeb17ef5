package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/lock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

// ======================================================
// INPUT
// ======================================================

type BookingInput struct {
	UserID      uint
	CounselorID uint
	StartTime   time.Time
	Duration    int
	Method      string
	Notes       string
}

type BookingResult struct {
	Appointment *models.Appointment
	Order       *models.Order
}

// ======================================================
// REQUEST BOOKING
// ======================================================

// RequestBooking holds the slot, creates the Pending appointment and order,
// then starts the charge in the background. The charge outcome arrives later
// as a callback.
func (c *Coordinator) RequestBooking(ctx context.Context, in BookingInput) (*BookingResult, error) {
	// 1. input
	if in.Duration == 0 {
		in.Duration = DefaultDuration
	}
	if in.Duration < MinDuration || in.Duration > MaxDuration {
		return nil, httperr.ErrInvalidInput
	}

	method, err := order.ParseMethod(in.Method)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	if !in.StartTime.After(now) {
		return nil, httperr.ErrInvalidInput
	}
	start := in.StartTime
	end := appointment.EndOf(start, in.Duration)

	// 2. counselor
	counselor, err := c.directory.GetCounselor(ctx, in.CounselorID)
	if err != nil {
		return nil, err
	}
	if !counselor.IsVerified {
		return nil, httperr.ErrCounselorUnavailable
	}
	if in.UserID == in.CounselorID {
		return nil, httperr.ErrForbidden
	}

	// 3. published availability
	if c.availability != nil {
		if err := c.availability.Available(ctx, in.CounselorID, start, end); err != nil {
			return nil, err
		}
	}

	amount := counselor.PriceCents * int64(in.Duration) / 60
	if amount <= 0 {
		return nil, httperr.ErrInvalidAmount
	}

	// 4. hold
	appointmentID := uuid.NewString()
	res, err := c.slots.Hold(ctx, in.CounselorID, start, end, appointmentID, c.holdTTL)
	if err != nil {
		return nil, err
	}
	if !res.Granted {
		return nil, httperr.ErrSlotUnavailable
	}

	// Once the hold exists the caller going away must not strand it half
	// built; the hold now lives until payment or expiry.
	ctx = context.WithoutCancel(ctx)

	// 5. appointment + order
	ap, o, err := c.createPending(ctx, appointmentID, in, start, end, amount, method)
	if err != nil {
		return nil, err
	}

	c.log.Info("booking held",
		"appointment_id", ap.ID,
		"order_id", o.ID,
		"counselor_id", ap.CounselorID,
		"start", start,
	)

	// 6. charge, off the request path and outside every exclusive section
	req := payment.ChargeRequest{
		OrderID: o.ID,
		OrderNo: o.OrderNo,
		Amount:  o.Amount,
		Method:  o.PaymentMethod,
	}
	c.spawn(func() { c.startCharge(ctx, req) })

	return &BookingResult{Appointment: ap, Order: o}, nil
}

// startCharge opens the provider charge and records its reference. A failure
// leaves the order Pending until the hold lapses.
func (c *Coordinator) startCharge(ctx context.Context, req payment.ChargeRequest) {
	ref, err := c.gateway.InitiateCharge(ctx, req)
	if err != nil {
		c.metrics.ObserveGateway("charge", "error")
		c.log.Warn("initiate charge failed, order stays pending until expiry",
			"order_id", req.OrderID,
			"error", err,
		)
		return
	}
	c.metrics.ObserveGateway("charge", "ok")

	if err := c.orders.AttachProviderReference(ctx, req.OrderID, ref); err != nil {
		c.log.Error("attach provider reference failed", "order_id", req.OrderID, "error", err)
	}
}

func (c *Coordinator) createPending(
	ctx context.Context,
	appointmentID string,
	in BookingInput,
	start, end time.Time,
	amount int64,
	method order.PaymentMethod,
) (*models.Appointment, *models.Order, error) {

	unlock, err := c.locks.Lock(ctx, lock.AppointmentKey(appointmentID))
	if err != nil {
		c.releaseOrphan(ctx, appointmentID)
		return nil, nil, err
	}
	defer unlock()

	now := c.clock.Now()
	ap := &models.Appointment{
		ID:            appointmentID,
		UserID:        in.UserID,
		CounselorID:   in.CounselorID,
		ScheduledTime: start,
		Duration:      in.Duration,
		EndTime:       end,
		Status:        string(appointment.InitialStatus()),
		Amount:        amount,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := c.appointments.CreateAppointment(ctx, ap); err != nil {
		c.releaseOrphan(ctx, appointmentID)
		return nil, nil, fmt.Errorf("booking: create appointment: %w", err)
	}

	o, err := c.orders.CreatePendingOrder(ctx, ap.ID, ap.UserID, amount, method)
	if err != nil {
		c.releaseOrphan(ctx, appointmentID)

		if cerr := appointment.Cancel(ap, now, appointment.ReasonOrderFailed, appointment.System); cerr == nil {
			ap.UpdatedAt = now
			if uerr := c.appointments.UpdateAppointment(ctx, ap); uerr != nil {
				c.log.Error("cancel after order failure", "appointment_id", ap.ID, "error", uerr)
			}
		}
		return nil, nil, err
	}

	return ap, o, nil
}

func (c *Coordinator) releaseOrphan(ctx context.Context, appointmentID string) {
	if err := c.slots.Release(ctx, appointmentID); err != nil {
		c.log.Error("release orphaned hold failed", "appointment_id", appointmentID, "error", err)
	}
}
