package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/BruksfildServices01/counselor-scheduler/internal/audit"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

type LogSink struct {
	log *logging.Logger
}

func NewLogSink(log *logging.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(ctx context.Context, ev Event) error {
	s.log.Info("notify: event",
		"type", ev.Type,
		"appointment_id", ev.AppointmentID,
		"order_id", ev.OrderID,
		"reason", ev.Reason,
	)
	return nil
}

// AuditSink persists each event as an audit row.
type AuditSink struct {
	logger *audit.Logger
}

func NewAuditSink(logger *audit.Logger) *AuditSink {
	return &AuditSink{logger: logger}
}

func (s *AuditSink) Emit(ctx context.Context, ev Event) error {
	return s.logger.Log(ctx, "system", string(ev.Type), "appointment", ev.AppointmentID, ev)
}

// Publisher is satisfied by queue.Producer.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// KafkaSink publishes events keyed by appointment id.
type KafkaSink struct {
	pub Publisher
}

func NewKafkaSink(pub Publisher) *KafkaSink {
	return &KafkaSink{pub: pub}
}

func (s *KafkaSink) Emit(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.pub.Publish(ctx, []byte(ev.AppointmentID), b)
}

// MultiSink delivers to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemorySink records events synchronously.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *MemorySink) Emit(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Count returns how many events of type t were recorded for an appointment.
func (s *MemorySink) Count(t EventType, appointmentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.Type == t && ev.AppointmentID == appointmentID {
			n++
		}
	}
	return n
}
