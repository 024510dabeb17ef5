package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BruksfildServices01/counselor-scheduler/internal/db"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/slot"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func at(h, m int) time.Time {
	return time.Date(2025, 3, 1, h, m, 0, 0, time.UTC)
}

func held(id string, counselor uint, start, end time.Time, expires time.Time) *models.TimeSlot {
	return &models.TimeSlot{
		ID:            id,
		CounselorID:   counselor,
		StartTime:     start,
		EndTime:       end,
		HoldState:     string(slot.StateHeld),
		HoldOwner:     "appt-" + id,
		HoldExpiresAt: &expires,
	}
}

func TestSlotInsertHoldRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	repo := NewSlotGormRepository(newTestDB(t))

	require.NoError(t, repo.InsertHold(ctx, held("s1", 7, at(10, 0), at(10, 30), at(8, 15))))

	err := repo.InsertHold(ctx, held("s2", 7, at(10, 15), at(10, 45), at(8, 15)))
	assert.ErrorIs(t, err, httperr.ErrSlotUnavailable)

	// touching boundary and other counselor are fine
	assert.NoError(t, repo.InsertHold(ctx, held("s3", 7, at(10, 30), at(11, 0), at(8, 15))))
	assert.NoError(t, repo.InsertHold(ctx, held("s4", 8, at(10, 0), at(10, 30), at(8, 15))))
}

func TestSlotFreedRowDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	repo := NewSlotGormRepository(newTestDB(t))

	first := held("s1", 7, at(10, 0), at(10, 30), at(8, 15))
	require.NoError(t, repo.InsertHold(ctx, first))

	first.HoldState = string(slot.StateFree)
	first.HoldExpiresAt = nil
	require.NoError(t, repo.UpdateSlot(ctx, first))

	assert.NoError(t, repo.InsertHold(ctx, held("s2", 7, at(10, 0), at(10, 30), at(8, 30))))

	active, err := repo.ListActive(ctx, 7, at(0, 0), at(23, 59))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "s2", active[0].ID)
}

func TestSlotExpiredHoldsAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewSlotGormRepository(newTestDB(t))

	require.NoError(t, repo.InsertHold(ctx, held("s1", 7, at(10, 0), at(10, 30), at(8, 15))))
	require.NoError(t, repo.InsertHold(ctx, held("s2", 7, at(11, 0), at(11, 30), at(8, 45))))

	expired, err := repo.ListExpiredHolds(ctx, at(8, 30))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "s1", expired[0].ID)

	// expiry exactly at now is not yet lapsed
	expired, err = repo.ListExpiredHolds(ctx, at(8, 15))
	require.NoError(t, err)
	assert.Empty(t, expired)

	got, err := repo.GetByOwner(ctx, "appt-s2")
	require.NoError(t, err)
	assert.Equal(t, "s2", got.ID)

	_, err = repo.GetByOwner(ctx, "missing")
	assert.ErrorIs(t, err, httperr.ErrNotFound)
}

func TestAppointmentQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentGormRepository(newTestDB(t))

	a := &models.Appointment{ID: "a1", UserID: 1, CounselorID: 7, ScheduledTime: at(9, 0), EndTime: at(9, 30), Status: "confirmed"}
	b := &models.Appointment{ID: "a2", UserID: 2, CounselorID: 7, ScheduledTime: at(10, 0), EndTime: at(10, 30), Status: "confirmed"}
	c := &models.Appointment{ID: "a3", UserID: 1, CounselorID: 9, ScheduledTime: at(9, 0), EndTime: at(9, 30), Status: "pending"}
	for _, ap := range []*models.Appointment{a, b, c} {
		require.NoError(t, repo.CreateAppointment(ctx, ap))
	}

	ended, err := repo.ListConfirmedEndedBy(ctx, at(9, 30))
	require.NoError(t, err)
	require.Len(t, ended, 1)
	assert.Equal(t, "a1", ended[0].ID)

	mine, err := repo.ListForParticipant(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	asCounselor, err := repo.ListForParticipant(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, asCounselor, 2)

	window, err := repo.ListForCounselorBetween(ctx, 7, at(9, 0), at(10, 0))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "a1", window[0].ID)

	window, err = repo.ListForCounselorBetween(ctx, 7, at(0, 0), at(23, 0))
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "a1", window[0].ID)
	assert.Equal(t, "a2", window[1].ID)

	b.Status = "cancelled"
	require.NoError(t, repo.UpdateAppointment(ctx, b))
	got, err := repo.GetAppointment(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Status)

	_, err = repo.GetAppointment(ctx, "nope")
	assert.ErrorIs(t, err, httperr.ErrNotFound)
}

func TestOrderUniquePerAppointment(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderGormRepository(newTestDB(t))

	first := &models.Order{ID: "o1", OrderNo: "N1", AppointmentID: "a1", UserID: 1, Amount: 5000, Status: "pending"}
	require.NoError(t, repo.CreateOrder(ctx, first))

	dup := &models.Order{ID: "o2", OrderNo: "N2", AppointmentID: "a1", UserID: 1, Amount: 5000, Status: "pending"}
	assert.ErrorIs(t, repo.CreateOrder(ctx, dup), httperr.ErrDuplicateOrder)

	got, err := repo.GetOrderByNo(ctx, "N1")
	require.NoError(t, err)
	assert.Equal(t, "o1", got.ID)

	got, err = repo.GetOrderByAppointment(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "N1", got.OrderNo)

	_, err = repo.GetOrder(ctx, "o2")
	assert.ErrorIs(t, err, httperr.ErrNotFound)
}

func TestOrderListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderGormRepository(newTestDB(t))

	for i, st := range []string{"pending", "paid", "paid", "voided"} {
		o := &models.Order{
			ID:            string(rune('a' + i)),
			OrderNo:       "N" + string(rune('a'+i)),
			AppointmentID: "ap" + string(rune('a'+i)),
			UserID:        1,
			Amount:        100,
			Status:        st,
			CreatedAt:     at(8, i),
		}
		require.NoError(t, repo.CreateOrder(ctx, o))
	}
	require.NoError(t, repo.CreateOrder(ctx, &models.Order{ID: "z", OrderNo: "Nz", AppointmentID: "apz", UserID: 2, Amount: 100, Status: "paid"}))

	paid, total, err := repo.ListOrders(ctx, order.ListFilter{UserID: 1, Status: order.StatusPaid})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, paid, 2)

	page, total, err := repo.ListOrders(ctx, order.ListFilter{UserID: 1, Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].ID)
}

func TestCallbackInsertOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewCallbackGormRepository(newTestDB(t))

	rec := &models.CallbackRecord{DedupKey: "ref:hash", ProviderReference: "ref", AckCode: "SUCCESS", ProcessedAt: at(8, 0)}
	ok, err := repo.InsertCallback(ctx, rec)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.InsertCallback(ctx, &models.CallbackRecord{DedupKey: "ref:hash", ProcessedAt: at(8, 1)})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetCallback(ctx, "ref:hash")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", got.AckCode)

	_, err = repo.GetCallback(ctx, "other")
	assert.ErrorIs(t, err, httperr.ErrNotFound)

	n, err := repo.PurgeCallbacksBefore(ctx, at(8, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.PurgeCallbacksBefore(ctx, at(9, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	gdb := newTestDB(t)
	repo := NewDirectoryGormRepository(gdb)

	require.NoError(t, gdb.Create(&models.CounselorProfile{UserID: 7, Name: "Dr. Wu", PriceCents: 20000, IsVerified: true, Timezone: "Asia/Shanghai"}).Error)
	require.NoError(t, gdb.Create(&models.WorkingHours{CounselorID: 7, Weekday: 1, StartTime: "10:00", EndTime: "16:00", Active: true}).Error)

	p, err := repo.GetCounselor(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), p.PriceCents)

	wh, err := repo.GetWorkingHours(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, "10:00", wh.StartTime)

	_, err = repo.GetWorkingHours(ctx, 7, 2)
	assert.ErrorIs(t, err, httperr.ErrNotFound)

	_, err = repo.GetCounselor(ctx, 8)
	assert.ErrorIs(t, err, httperr.ErrNotFound)
}
