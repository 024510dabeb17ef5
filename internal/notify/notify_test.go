package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/counselor-scheduler/internal/audit"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

type failingSink struct{}

func (failingSink) Emit(ctx context.Context, ev Event) error {
	return errors.New("sms gateway down")
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	mem := &MemorySink{}
	d := NewDispatcher(MultiSink{mem, failingSink{}}, 10, logging.Discard(), nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Emit(context.Background(), Event{Type: BookingConfirmed, AppointmentID: "ap-1"}))
	}
	d.Close()

	assert.Equal(t, 5, mem.Count(BookingConfirmed, "ap-1"))
}

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	n       int
}

func (b *blockingSink) Emit(ctx context.Context, ev Event) error {
	<-b.release
	b.mu.Lock()
	b.n++
	b.mu.Unlock()
	return nil
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(sink, 1, logging.Discard(), nil)

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Emit(context.Background(), Event{Type: PaymentReceived}))
	}
	close(sink.release)
	d.Close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Less(t, sink.n, 10)
	assert.GreaterOrEqual(t, sink.n, 1)
}

type capturePublisher struct {
	key, value []byte
}

func (c *capturePublisher) Publish(ctx context.Context, key, value []byte) error {
	c.key, c.value = key, value
	return nil
}

func TestKafkaSinkKeysByAppointment(t *testing.T) {
	pub := &capturePublisher{}
	ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	err := NewKafkaSink(pub).Emit(context.Background(), Event{Type: AppointmentCancelled, AppointmentID: "ap-9", Timestamp: ts})
	require.NoError(t, err)

	assert.Equal(t, "ap-9", string(pub.key))
	var got Event
	require.NoError(t, json.Unmarshal(pub.value, &got))
	assert.Equal(t, AppointmentCancelled, got.Type)
	assert.True(t, ts.Equal(got.Timestamp))
}

type auditRows struct{ rows []models.AuditLog }

func (a *auditRows) WriteAudit(ctx context.Context, row *models.AuditLog) error {
	a.rows = append(a.rows, *row)
	return nil
}

func TestAuditSinkWritesRow(t *testing.T) {
	store := &auditRows{}
	sink := NewAuditSink(audit.NewWithStore(store))

	require.NoError(t, sink.Emit(context.Background(), Event{Type: BookingConfirmed, AppointmentID: "ap-2"}))
	require.Len(t, store.rows, 1)
	assert.Equal(t, string(BookingConfirmed), store.rows[0].Action)
	assert.Equal(t, "ap-2", store.rows[0].EntityID)
}
