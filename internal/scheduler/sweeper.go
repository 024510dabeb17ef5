package scheduler

import (
	"context"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/clock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/booking"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/reconcile"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/slotledger"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

// Sweeper drives hold expiry, completion and callback retention on a fixed
// interval. Each pass goes through the same exclusive sections as requests.
type Sweeper struct {
	slots      *slotledger.Ledger
	booking    *booking.Coordinator
	reconciler *reconcile.Reconciler
	clock      clock.Clock
	logger     *logging.Logger

	interval   time.Duration
	purgeEvery time.Duration
	lastPurge  time.Time
}

func NewSweeper(
	slots *slotledger.Ledger,
	coord *booking.Coordinator,
	rec *reconcile.Reconciler,
	clk clock.Clock,
	logger *logging.Logger,
) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		slots:      slots,
		booking:    coord,
		reconciler: rec,
		clock:      clk,
		logger:     logger,
		interval:   30 * time.Second,
		purgeEvery: 24 * time.Hour,
	}
}

// WithInterval sets the sweep interval.
func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	if d > 0 {
		s.interval = d
	}
	return s
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("starting sweeper", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper shutting down")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Result counts what one pass changed.
type Result struct {
	Expired   int
	Completed int
	Purged    int64
}

func (s *Sweeper) RunOnce(ctx context.Context) Result {
	var res Result
	now := s.clock.Now()

	// Each appointment is settled before its slot is freed; one that fails
	// keeps its hold and is picked up again next pass.
	expired, err := s.slots.ExpireHolds(ctx, now, s.booking.OnSlotExpired)
	if err != nil {
		s.logger.Error("expire holds failed", "error", err)
	}
	res.Expired = len(expired)

	res.Completed, err = s.booking.SweepCompletions(ctx, now)
	if err != nil {
		s.logger.Error("sweep completions failed", "error", err)
	}

	if s.reconciler != nil && now.Sub(s.lastPurge) >= s.purgeEvery {
		res.Purged, err = s.reconciler.PurgeExpired(ctx, now)
		if err != nil {
			s.logger.Error("purge callbacks failed", "error", err)
		} else {
			s.lastPurge = now
		}
	}

	if res.Expired > 0 || res.Completed > 0 {
		s.logger.Info("sweep done",
			"expired", res.Expired,
			"completed", res.Completed,
		)
	}
	return res
}
