// Package reconcile applies provider payment callbacks exactly once under
// at-least-once delivery.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/clock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/lock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/metrics"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/booking"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/orderledger"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

// Outcomes stored on the CallbackRecord.
const (
	OutcomeUnknownOrder   = "unknown_order"
	OutcomeAmountMismatch = "amount_mismatch"
	OutcomeCancelled      = "cancelled"
	OutcomeStaleFailure   = "stale_failure"
)

type Deps struct {
	Verifier payment.Verifier
	Store    payment.CallbackStore
	Archive  payment.Archiver
	Orders   *orderledger.Ledger
	Booking  *booking.Coordinator
	Locks    lock.Locker
	Clock    clock.Clock
	Log      *logging.Logger
	Metrics  *metrics.EngineMetrics

	Retention time.Duration
}

type Reconciler struct {
	verifier  payment.Verifier
	store     payment.CallbackStore
	archive   payment.Archiver
	orders    *orderledger.Ledger
	booking   *booking.Coordinator
	locks     lock.Locker
	clock     clock.Clock
	log       *logging.Logger
	metrics   *metrics.EngineMetrics
	retention time.Duration
}

func New(d Deps) *Reconciler {
	if d.Log == nil {
		d.Log = logging.Default()
	}
	if d.Retention < 30*24*time.Hour {
		d.Retention = 30 * 24 * time.Hour
	}
	return &Reconciler{
		verifier:  d.Verifier,
		store:     d.Store,
		archive:   d.Archive,
		orders:    d.Orders,
		booking:   d.Booking,
		locks:     d.Locks,
		clock:     d.Clock,
		log:       d.Log.With("component", "reconcile"),
		metrics:   d.Metrics,
		retention: d.Retention,
	}
}

// Handle verifies, deduplicates and applies one delivery. A non-nil error
// means the provider should deliver again; duplicates always return the Ack
// of the first delivery.
func (r *Reconciler) Handle(ctx context.Context, raw []byte, signature string) (payment.Ack, error) {
	started := time.Now()

	// 1. signature, before anything else looks at the payload
	if err := r.verifier.Verify(raw, signature); err != nil {
		r.metrics.ObserveCallback("invalid_signature", time.Since(started).Seconds())
		r.log.Warn("callback rejected: invalid signature")
		return payment.Ack{}, err
	}

	cb, err := payment.ParseCallback(raw)
	if err != nil {
		r.metrics.ObserveCallback("malformed", time.Since(started).Seconds())
		return payment.Ack{}, err
	}

	key, hash := payment.DedupKey(cb.ProviderReference, raw)
	log := r.log.With("order_no", cb.OrderNo, "provider_reference", cb.ProviderReference, "type", cb.Type)

	// 2. fast duplicate check
	if ack, ok, err := r.recorded(ctx, key); err != nil || ok {
		if ok {
			r.metrics.ObserveCallback("duplicate", time.Since(started).Seconds())
		}
		return ack, err
	}

	o, err := r.orders.GetByNo(ctx, cb.OrderNo)
	if errors.Is(err, httperr.ErrNotFound) {
		log.Warn("callback for unknown order")
		return r.finish(ctx, key, hash, cb, OutcomeUnknownOrder, started)
	}
	if err != nil {
		return payment.Ack{}, err
	}

	// 3. one callback at a time per appointment
	unlock, err := r.locks.Lock(ctx, lock.CallbackKey(o.AppointmentID))
	if err != nil {
		return payment.Ack{}, err
	}
	defer unlock()

	if ack, ok, err := r.recorded(ctx, key); err != nil || ok {
		if ok {
			r.metrics.ObserveCallback("duplicate", time.Since(started).Seconds())
		}
		return ack, err
	}

	r.archiveRaw(ctx, key, raw, log)

	// 4. apply
	outcome, err := r.apply(ctx, cb, o, log)
	if err != nil {
		r.metrics.ObserveCallback("error", time.Since(started).Seconds())
		log.Error("callback not applied, provider will retry", "error", err)
		return payment.Ack{}, err
	}

	return r.finish(ctx, key, hash, cb, outcome, started)
}

func (r *Reconciler) recorded(ctx context.Context, key string) (payment.Ack, bool, error) {
	rec, err := r.store.GetCallback(ctx, key)
	if errors.Is(err, httperr.ErrNotFound) {
		return payment.Ack{}, false, nil
	}
	if err != nil {
		return payment.Ack{}, false, fmt.Errorf("reconcile: lookup %s: %w", key, err)
	}
	return payment.Ack{Code: rec.AckCode, Message: payment.AckOK.Message}, true, nil
}

func (r *Reconciler) apply(ctx context.Context, cb *payment.Callback, o *models.Order, log *logging.Logger) (string, error) {
	switch cb.Type {
	case payment.ChargeSucceeded:
		if cb.Amount != o.Amount {
			note := fmt.Sprintf("callback amount %d does not match order amount %d", cb.Amount, o.Amount)
			if err := r.orders.FlagForReconciliation(ctx, o.ID, note); err != nil {
				return "", err
			}
			return OutcomeAmountMismatch, nil
		}

		paidAt := cb.PaidAt
		if paidAt.IsZero() {
			paidAt = r.clock.Now()
		}
		outcome, err := r.booking.ConfirmPayment(ctx, o.AppointmentID, cb.ProviderReference, paidAt)
		if err != nil {
			return "", err
		}
		return string(outcome), nil

	case payment.ChargeFailed:
		current, err := r.orders.Get(ctx, o.ID)
		if err != nil {
			return "", err
		}
		if order.Status(current.Status) != order.StatusPending {
			log.Info("failure callback for settled order ignored", "status", current.Status)
			return OutcomeStaleFailure, nil
		}

		_, err = r.booking.Cancel(ctx, o.AppointmentID, appointment.System, appointment.ReasonPaymentFailed)
		if errors.Is(err, httperr.ErrInvalidTransition) {
			return OutcomeStaleFailure, nil
		}
		if err != nil {
			return "", err
		}
		return OutcomeCancelled, nil
	}

	return "", httperr.ErrInvalidInput
}

func (r *Reconciler) finish(
	ctx context.Context,
	key, hash string,
	cb *payment.Callback,
	outcome string,
	started time.Time,
) (payment.Ack, error) {

	rec := &models.CallbackRecord{
		DedupKey:          key,
		ProviderReference: cb.ProviderReference,
		PayloadHash:       hash,
		EventType:         string(cb.Type),
		OrderNo:           cb.OrderNo,
		Outcome:           outcome,
		AckCode:           payment.AckOK.Code,
		ProcessedAt:       r.clock.Now(),
	}

	if _, err := r.store.InsertCallback(ctx, rec); err != nil {
		return payment.Ack{}, fmt.Errorf("reconcile: record %s: %w", key, err)
	}

	r.metrics.ObserveCallback(outcome, time.Since(started).Seconds())
	r.log.Info("callback processed",
		"order_no", cb.OrderNo,
		"provider_reference", cb.ProviderReference,
		"outcome", outcome,
	)
	return payment.AckOK, nil
}

func (r *Reconciler) archiveRaw(ctx context.Context, key string, raw []byte, log *logging.Logger) {
	if r.archive == nil {
		return
	}
	if err := r.archive.Archive(ctx, key, raw); err != nil {
		log.Warn("archive callback failed", "error", err)
	}
}

// PurgeExpired drops callback records older than the retention window and
// returns how many were removed.
func (r *Reconciler) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.store.PurgeCallbacksBefore(ctx, now.Add(-r.retention))
	if err != nil {
		return 0, fmt.Errorf("reconcile: purge: %w", err)
	}
	if n > 0 {
		r.log.Info("purged callback records", "count", n)
	}
	return n, nil
}
