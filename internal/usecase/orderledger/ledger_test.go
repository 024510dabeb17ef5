package orderledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/counselor-scheduler/internal/clock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/infra/memory"
	"github.com/BruksfildServices01/counselor-scheduler/internal/lock"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newLedger() *Ledger {
	return New(memory.NewStore(), lock.NewKeyedMutex(), clock.NewFake(now), logging.Discard(), nil)
}

func TestCreatePendingOrder(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	o, err := l.CreatePendingOrder(ctx, "ap-1", 5, 5000, order.MethodWechat)
	require.NoError(t, err)
	assert.Equal(t, string(order.StatusPending), o.Status)
	assert.Equal(t, int64(5000), o.Amount)
	assert.Len(t, o.OrderNo, 22)

	_, err = l.CreatePendingOrder(ctx, "ap-1", 5, 5000, order.MethodWechat)
	assert.ErrorIs(t, err, httperr.ErrDuplicateOrder)

	_, err = l.CreatePendingOrder(ctx, "ap-2", 5, 0, order.MethodWechat)
	assert.ErrorIs(t, err, httperr.ErrInvalidAmount)
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	o, err := l.CreatePendingOrder(ctx, "ap-1", 5, 5000, order.MethodAlipay)
	require.NoError(t, err)

	st, err := l.MarkPaid(ctx, o.ID, "ref_1", now)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, st)

	st, err = l.MarkPaid(ctx, o.ID, "ref_other", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, st)

	got, err := l.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "ref_1", got.ProviderReference)
	assert.True(t, now.Equal(*got.PaidAt))
}

func TestMarkRefundedOnlyFromPaid(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	o, err := l.CreatePendingOrder(ctx, "ap-1", 5, 5000, order.MethodWechat)
	require.NoError(t, err)

	assert.ErrorIs(t, l.MarkRefunded(ctx, o.ID, "rf_1"), httperr.ErrInvalidTransition)

	_, err = l.MarkPaid(ctx, o.ID, "ref_1", now)
	require.NoError(t, err)
	require.NoError(t, l.MarkRefunded(ctx, o.ID, "rf_1"))
	assert.ErrorIs(t, l.MarkRefunded(ctx, o.ID, "rf_1"), httperr.ErrInvalidTransition)

	got, err := l.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, string(order.StatusRefunded), got.Status)
	assert.Equal(t, "rf_1", got.RefundReference)
}

func TestVoidPending(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	o, err := l.CreatePendingOrder(ctx, "ap-1", 5, 5000, order.MethodWechat)
	require.NoError(t, err)

	require.NoError(t, l.VoidPending(ctx, o.ID))
	require.NoError(t, l.VoidPending(ctx, o.ID))

	st, err := l.MarkPaid(ctx, o.ID, "ref_1", now)
	require.NoError(t, err)
	assert.Equal(t, order.StatusVoided, st)

	paid, err := l.CreatePendingOrder(ctx, "ap-2", 5, 5000, order.MethodWechat)
	require.NoError(t, err)
	_, err = l.MarkPaid(ctx, paid.ID, "ref_2", now)
	require.NoError(t, err)
	assert.ErrorIs(t, l.VoidPending(ctx, paid.ID), httperr.ErrInvalidTransition)
}

func TestAttachReferenceAndFlag(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	o, err := l.CreatePendingOrder(ctx, "ap-1", 5, 5000, order.MethodWechat)
	require.NoError(t, err)

	require.NoError(t, l.AttachProviderReference(ctx, o.ID, "ref_1"))
	require.NoError(t, l.FlagForReconciliation(ctx, o.ID, "refund exhausted"))

	got, err := l.GetByNo(ctx, o.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, "ref_1", got.ProviderReference)
	assert.True(t, got.NeedsReconciliation)
	assert.Equal(t, "refund exhausted", got.ReconcileNote)

	_, err = l.Get(ctx, "missing")
	assert.ErrorIs(t, err, httperr.ErrNotFound)
}

func TestListPaginates(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	for _, ap := range []string{"a", "b", "c"} {
		_, err := l.CreatePendingOrder(ctx, ap, 5, 100, order.MethodWechat)
		require.NoError(t, err)
	}
	_, err := l.CreatePendingOrder(ctx, "d", 6, 100, order.MethodWechat)
	require.NoError(t, err)

	items, total, err := l.List(ctx, order.ListFilter{UserID: 5, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 1)
}
