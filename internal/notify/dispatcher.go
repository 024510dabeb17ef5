package notify

import (
	"context"
	"sync"
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/metrics"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

// Dispatcher queues events and forwards them to a Sink from one worker.
// When the queue is full the event is dropped rather than blocking the caller.
type Dispatcher struct {
	sink    Sink
	queue   chan Event
	timeout time.Duration
	log     *logging.Logger
	metrics *metrics.EngineMetrics

	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(sink Sink, size int, log *logging.Logger, m *metrics.EngineMetrics) *Dispatcher {
	if size <= 0 {
		size = 100
	}
	if log == nil {
		log = logging.Default()
	}
	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan Event, size),
		timeout: 5 * time.Second,
		log:     log,
		metrics: m,
		done:    make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.sink.Emit(ctx, ev)
		cancel()

		if err != nil {
			d.log.Warn("notify: delivery failed",
				"type", ev.Type,
				"appointment_id", ev.AppointmentID,
				"error", err,
			)
			d.metrics.ObserveNotification(string(ev.Type), "failed")
			continue
		}
		d.metrics.ObserveNotification(string(ev.Type), "sent")
	}
}

// Emit never blocks and never fails.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) error {
	select {
	case d.queue <- ev:
	default:
		d.log.Warn("notify: queue full, dropping event",
			"type", ev.Type,
			"appointment_id", ev.AppointmentID,
		)
		d.metrics.ObserveNotification(string(ev.Type), "dropped")
	}
	return nil
}

// Close stops accepting events and waits for queued ones to be delivered.
// Emit must not be called after Close.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.queue) })
	<-d.done
}
