// Package orderledger owns Order.Status. It knows money, not calendars.
package orderledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/counselor-scheduler/internal/clock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/lock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/metrics"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

type Ledger struct {
	repo    order.Repository
	locks   lock.Locker
	clock   clock.Clock
	log     *logging.Logger
	metrics *metrics.EngineMetrics
}

func New(
	repo order.Repository,
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
		log:     log.With("component", "orderledger"),
		metrics: m,
	}
}

// CreatePendingOrder fails with DuplicateOrder if the appointment already has
// an order.
func (l *Ledger) CreatePendingOrder(
	ctx context.Context,
	appointmentID string,
	userID uint,
	amount int64,
	method order.PaymentMethod,
) (*models.Order, error) {

	if amount <= 0 {
		return nil, httperr.ErrInvalidAmount
	}
	if appointmentID == "" {
		return nil, httperr.ErrInvalidInput
	}

	now := l.clock.Now()
	o := &models.Order{
		ID:            uuid.NewString(),
		OrderNo:       order.NewOrderNo(now),
		UserID:        userID,
		AppointmentID: appointmentID,
		Amount:        amount,
		PaymentMethod: string(method),
		Status:        string(order.StatusPending),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := l.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	l.metrics.ObserveOrderTransition(string(order.StatusPending))
	return o, nil
}

// mutate runs fn on the order under its exclusive section and saves it when
// fn reports a change.
func (l *Ledger) mutate(
	ctx context.Context,
	orderID string,
	fn func(o *models.Order, now time.Time) (changed bool, err error),
) (*models.Order, error) {

	unlock, err := l.locks.Lock(ctx, lock.OrderKey(orderID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := l.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	changed, err := fn(o, now)
	if err != nil || !changed {
		return o, err
	}

	o.UpdatedAt = now
	if err := l.repo.UpdateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("orderledger: update %s: %w", orderID, err)
	}
	return o, nil
}

// MarkPaid moves Pending to Paid. From any other state it changes nothing and
// returns the current status, so replays are harmless.
func (l *Ledger) MarkPaid(
	ctx context.Context,
	orderID string,
	providerReference string,
	paidAt time.Time,
) (order.Status, error) {

	var paid bool
	o, err := l.mutate(ctx, orderID, func(o *models.Order, now time.Time) (bool, error) {
		if order.Status(o.Status) != order.StatusPending {
			return false, nil
		}
		o.Status = string(order.StatusPaid)
		o.ProviderReference = providerReference
		o.PaidAt = &paidAt
		paid = true
		return true, nil
	})
	if err != nil {
		return "", err
	}

	if paid {
		l.metrics.ObserveOrderTransition(string(order.StatusPaid))
	}
	return order.Status(o.Status), nil
}

// MarkRefunded is valid only from Paid.
func (l *Ledger) MarkRefunded(ctx context.Context, orderID string, refundReference string) error {
	_, err := l.mutate(ctx, orderID, func(o *models.Order, now time.Time) (bool, error) {
		if err := order.Transition(order.Status(o.Status), order.StatusRefunded); err != nil {
			return false, err
		}
		o.Status = string(order.StatusRefunded)
		o.RefundReference = refundReference
		o.RefundedAt = &now
		return true, nil
	})
	if err != nil {
		return err
	}

	l.metrics.ObserveOrderTransition(string(order.StatusRefunded))
	return nil
}

// VoidPending moves Pending to Voided. Voiding a voided order is a no-op.
func (l *Ledger) VoidPending(ctx context.Context, orderID string) error {
	var voided bool
	_, err := l.mutate(ctx, orderID, func(o *models.Order, now time.Time) (bool, error) {
		if order.Status(o.Status) == order.StatusVoided {
			return false, nil
		}
		if err := order.Transition(order.Status(o.Status), order.StatusVoided); err != nil {
			return false, err
		}
		o.Status = string(order.StatusVoided)
		o.VoidedAt = &now
		voided = true
		return true, nil
	})
	if err != nil {
		return err
	}

	if voided {
		l.metrics.ObserveOrderTransition(string(order.StatusVoided))
	}
	return nil
}

// AttachProviderReference records the charge reference while the order is
// still Pending. Later states keep the reference set by the callback.
func (l *Ledger) AttachProviderReference(ctx context.Context, orderID, ref string) error {
	_, err := l.mutate(ctx, orderID, func(o *models.Order, now time.Time) (bool, error) {
		if order.Status(o.Status) != order.StatusPending || o.ProviderReference == ref {
			return false, nil
		}
		o.ProviderReference = ref
		return true, nil
	})
	return err
}

// FlagForReconciliation marks an order that needs a human to settle it.
func (l *Ledger) FlagForReconciliation(ctx context.Context, orderID, note string) error {
	_, err := l.mutate(ctx, orderID, func(o *models.Order, now time.Time) (bool, error) {
		o.NeedsReconciliation = true
		o.ReconcileNote = note
		return true, nil
	})
	if err != nil {
		return err
	}

	l.log.Error("order flagged for reconciliation", "order_id", orderID, "note", note)
	return nil
}

// --------------------------------------------------
// Reads
// --------------------------------------------------

func (l *Ledger) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return l.repo.GetOrder(ctx, orderID)
}

func (l *Ledger) GetByNo(ctx context.Context, orderNo string) (*models.Order, error) {
	return l.repo.GetOrderByNo(ctx, orderNo)
}

func (l *Ledger) GetByAppointment(ctx context.Context, appointmentID string) (*models.Order, error) {
	return l.repo.GetOrderByAppointment(ctx, appointmentID)
}

func (l *Ledger) List(ctx context.Context, f order.ListFilter) ([]models.Order, int64, error) {
	return l.repo.ListOrders(ctx, f.Normalize())
}
