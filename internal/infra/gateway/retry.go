package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

// Retrying retries GatewayUnavailable with exponential backoff. Every other
// error is returned at once.
type Retrying struct {
	next        payment.Gateway
	maxAttempts int
	backoff     time.Duration
	log         *logging.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewRetrying(next payment.Gateway, maxAttempts int, backoff time.Duration, log *logging.Logger) *Retrying {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if log == nil {
		log = logging.Default()
	}
	return &Retrying{
		next:        next,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		log:         log,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *Retrying) do(ctx context.Context, op string, fn func() (string, error)) (string, error) {
	wait := r.backoff
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		var ref string
		ref, err = fn()
		if err == nil {
			return ref, nil
		}
		if !errors.Is(err, httperr.ErrGatewayUnavailable) || attempt == r.maxAttempts {
			break
		}

		r.log.Warn("gateway unavailable, retrying", "op", op, "attempt", attempt, "wait", wait)
		if serr := r.sleep(ctx, wait); serr != nil {
			return "", serr
		}
		wait *= 2
	}
	return "", err
}

func (r *Retrying) InitiateCharge(ctx context.Context, req payment.ChargeRequest) (string, error) {
	return r.do(ctx, "charge", func() (string, error) {
		return r.next.InitiateCharge(ctx, req)
	})
}

func (r *Retrying) Refund(ctx context.Context, providerReference string, amount int64) (string, error) {
	return r.do(ctx, "refund", func() (string, error) {
		return r.next.Refund(ctx, providerReference, amount)
	})
}

var (
	_ payment.Gateway  = (*Sandbox)(nil)
	_ payment.Gateway  = (*Retrying)(nil)
	_ payment.Verifier = (*HMACVerifier)(nil)
)
