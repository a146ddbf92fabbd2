package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-backend/internal/config"
	ordermodel "delivery-backend/internal/domains/order/model"
	"delivery-backend/internal/domains/refund/model"
)

var sweepTime = time.Date(2025, 6, 1, 4, 0, 0, 0, time.UTC)

type cleanupFixture struct {
	db     *memDB
	cache  *fakeCache
	locker *fakeLocker
	svc    *cleanupService
}

func newCleanupFixture(batchSize int) *cleanupFixture {
	db := newMemDB()
	c := newFakeCache()
	l := &fakeLocker{}
	return &cleanupFixture{
		db:     db,
		cache:  c,
		locker: l,
		svc: &cleanupService{
			orderRepo:  &fakeOrderRepo{db: db},
			refundRepo: &fakeRefundRepo{db: db},
			txManager:  &fakeTxManager{db: db},
			locker:     l,
			cache:      c,
			cfg: config.JobConfig{
				RetentionDays: 30,
				BatchSize:     batchSize,
				LockTTL:       5 * time.Minute,
			},
			now: fixedClock(sweepTime),
		},
	}
}

func expiredOrder(id int64, expiredFor time.Duration) ordermodel.Order {
	return ordermodel.Order{
		ID:              id,
		UserLogin:       "ana",
		Status:          ordermodel.OrderStatusRefundExpired,
		RefundDeadline:  sweepTime.Add(-expiredFor - time.Hour),
		StatusChangedAt: sweepTime.Add(-expiredFor),
	}
}

func TestCleanupExpiredOrders(t *testing.T) {
	f := newCleanupFixture(1)

	// deadline passed, still created: marked only
	f.db.putOrder(ordermodel.Order{
		ID:             1,
		Status:         ordermodel.OrderStatusCreated,
		RefundDeadline: sweepTime.Add(-time.Hour),
	})
	// expired 40 days ago: purged with its refunds
	f.db.putOrder(expiredOrder(2, 40*24*time.Hour))
	f.db.putRefund(model.Refund{ID: 20, OrderID: 2, Status: model.RefundStatusClosed})
	f.db.putRefund(model.Refund{ID: 21, OrderID: 2, Status: model.RefundStatusRejected})
	// expired 10 days ago: kept
	f.db.putOrder(expiredOrder(3, 10*24*time.Hour))
	// expired long ago but held by a live request: skipped
	f.db.putOrder(expiredOrder(4, 60*24*time.Hour))
	f.db.locked[4] = true
	// expired exactly at the retention boundary: purged
	f.db.putOrder(expiredOrder(5, 30*24*time.Hour))
	// still open window
	f.db.putOrder(ordermodel.Order{
		ID:             6,
		Status:         ordermodel.OrderStatusCreated,
		RefundDeadline: sweepTime.Add(time.Hour),
	})

	result, err := f.svc.CleanupExpiredOrders(context.Background())

	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, int64(1), result.Marked)
	assert.Equal(t, 2, result.Purged)
	assert.Equal(t, 1, result.SkippedOrders)
	assert.Equal(t, int64(2), result.RefundsDeleted)
	assert.Equal(t, sweepTime.Add(-30*24*time.Hour), result.Cutoff)

	marked, ok := f.db.order(1)
	require.True(t, ok)
	assert.Equal(t, ordermodel.OrderStatusRefundExpired, marked.Status)
	assert.Equal(t, sweepTime, marked.StatusChangedAt)

	_, ok = f.db.order(2)
	assert.False(t, ok)
	assert.Empty(t, f.db.refundsOfOrder(2))
	_, ok = f.db.order(3)
	assert.True(t, ok)
	_, ok = f.db.order(4)
	assert.True(t, ok)
	_, ok = f.db.order(5)
	assert.False(t, ok)
	_, ok = f.db.order(6)
	assert.True(t, ok)

	assert.Equal(t, CleanupLockKey, f.locker.lastKey)
	assert.Equal(t, 5*time.Minute, f.locker.lastTTL)
	assert.Equal(t, 1, f.locker.released)
	assert.Equal(t, []string{cacheKeyReportPattern}, f.cache.patterns)
}

func TestCleanupExpiredOrders_IsIdempotent(t *testing.T) {
	f := newCleanupFixture(100)
	f.db.putOrder(expiredOrder(2, 40*24*time.Hour))

	first, err := f.svc.CleanupExpiredOrders(context.Background())
	require.NoError(t, err)
	second, err := f.svc.CleanupExpiredOrders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Purged)
	assert.Equal(t, 0, second.Purged)
	assert.Equal(t, int64(0), second.Marked)
	assert.Len(t, f.cache.patterns, 1)
}

func TestCleanupExpiredOrders_LockBusy(t *testing.T) {
	f := newCleanupFixture(100)
	f.locker.busy = true
	f.db.putOrder(expiredOrder(2, 40*24*time.Hour))

	result, err := f.svc.CleanupExpiredOrders(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	_, ok := f.db.order(2)
	assert.True(t, ok)
	assert.Equal(t, 0, f.db.reads)
}

func TestCleanupExpiredOrders_LockError(t *testing.T) {
	f := newCleanupFixture(100)
	f.locker.err = errors.New("redis down")

	result, err := f.svc.CleanupExpiredOrders(context.Background())

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestCleanupExpiredOrders_CancelledContext(t *testing.T) {
	f := newCleanupFixture(100)
	f.db.putOrder(expiredOrder(2, 40*24*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.CleanupExpiredOrders(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	_, ok := f.db.order(2)
	assert.True(t, ok)
	assert.Equal(t, 1, f.locker.released)
}

func TestCleanupExpiredOrders_MarksInBatches(t *testing.T) {
	f := newCleanupFixture(2)
	for id := int64(1); id <= 5; id++ {
		f.db.putOrder(ordermodel.Order{
			ID:             id,
			Status:         ordermodel.OrderStatusCreated,
			RefundDeadline: sweepTime.Add(-time.Hour),
		})
	}
	// held by a live refund request: left for the next sweep
	f.db.putOrder(ordermodel.Order{
		ID:             6,
		Status:         ordermodel.OrderStatusCreated,
		RefundDeadline: sweepTime.Add(-time.Hour),
	})
	f.db.locked[6] = true

	result, err := f.svc.CleanupExpiredOrders(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Marked)
	assert.Equal(t, []int{2, 2, 2}, f.db.markCalls)

	for id := int64(1); id <= 5; id++ {
		o, _ := f.db.order(id)
		assert.Equal(t, ordermodel.OrderStatusRefundExpired, o.Status, id)
	}
	held, _ := f.db.order(6)
	assert.Equal(t, ordermodel.OrderStatusCreated, held.Status)
}
