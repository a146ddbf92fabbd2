package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	ordermodel "delivery-backend/internal/domains/order/model"
	"delivery-backend/internal/domains/refund/model"
	"delivery-backend/internal/infrastructure/lock"
	"delivery-backend/pkg/database"
)

// =====================================================
// IN-MEMORY DATABASE
// =====================================================
// memDB keeps committed state; every fakeTx works on a copy that replaces the
// committed state only on commit.

type memState struct {
	orders       map[int64]ordermodel.Order
	refunds      map[int64]model.Refund
	nextRefundID int64
}

func (s memState) clone() memState {
	c := memState{
		orders:       make(map[int64]ordermodel.Order, len(s.orders)),
		refunds:      make(map[int64]model.Refund, len(s.refunds)),
		nextRefundID: s.nextRefundID,
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.refunds {
		c.refunds[k] = v
	}
	return c
}

type memDB struct {
	mu    sync.Mutex
	state memState

	// rows served by the report queries
	inStudyRows []model.InStudyRow
	expiredRows map[string][]model.ExpiredOrderRow

	// locked simulates rows held by another transaction
	locked map[int64]bool

	begins    int
	commits   int
	rollbacks int
	markCalls []int
	reads     int
}

func newMemDB() *memDB {
	return &memDB{
		state: memState{
			orders:       map[int64]ordermodel.Order{},
			refunds:      map[int64]model.Refund{},
			nextRefundID: 1,
		},
		expiredRows: map[string][]model.ExpiredOrderRow{},
		locked:      map[int64]bool{},
	}
}

func (db *memDB) putOrder(o ordermodel.Order) {
	db.state.orders[o.ID] = o
}

func (db *memDB) putRefund(r model.Refund) {
	db.state.refunds[r.ID] = r
	if r.ID >= db.state.nextRefundID {
		db.state.nextRefundID = r.ID + 1
	}
}

func (db *memDB) order(id int64) (ordermodel.Order, bool) {
	o, ok := db.state.orders[id]
	return o, ok
}

func (db *memDB) refundsOfOrder(orderID int64) []model.Refund {
	var out []model.Refund
	for _, r := range db.state.refunds {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out
}

type fakeTx struct {
	pgx.Tx
	work   memState
	closed bool
}

func work(tx pgx.Tx) *memState {
	return &tx.(*fakeTx).work
}

// =====================================================
// TRANSACTION MANAGER
// =====================================================

type fakeTxManager struct {
	db *memDB
}

func (m *fakeTxManager) BeginTx(ctx context.Context) (pgx.Tx, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.begins++
	return &fakeTx{work: m.db.state.clone()}, nil
}

func (m *fakeTxManager) CommitTx(ctx context.Context, tx pgx.Tx) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	ft := tx.(*fakeTx)
	if ft.closed {
		return pgx.ErrTxClosed
	}
	ft.closed = true
	m.db.state = ft.work
	m.db.commits++
	return nil
}

func (m *fakeTxManager) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	ft := tx.(*fakeTx)
	if ft.closed {
		return nil
	}
	ft.closed = true
	m.db.rollbacks++
	return nil
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn database.TxFunc) error {
	tx, err := m.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = m.RollbackTx(ctx, tx)
		return err
	}
	return m.CommitTx(ctx, tx)
}

// =====================================================
// ORDER REPOSITORY
// =====================================================

type fakeOrderRepo struct {
	db *memDB
}

func (r *fakeOrderRepo) GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id int64) (*ordermodel.Order, error) {
	o, ok := work(tx).orders[id]
	if !ok {
		return nil, ordermodel.ErrOrderNotFound
	}
	return &o, nil
}

func (r *fakeOrderRepo) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id int64, status string) error {
	w := work(tx)
	o, ok := w.orders[id]
	if !ok {
		return ordermodel.ErrOrderNotFound
	}
	if o.Status != status {
		o.StatusChangedAt = time.Now()
	}
	o.Status = status
	w.orders[id] = o
	return nil
}

func (r *fakeOrderRepo) MarkRefundExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.markCalls = append(r.db.markCalls, limit)

	var ids []int64
	for id, o := range r.db.state.orders {
		if o.Status == ordermodel.OrderStatusCreated && o.RefundDeadline.Before(now) && !r.db.locked[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}

	for _, id := range ids {
		o := r.db.state.orders[id]
		o.Status = ordermodel.OrderStatusRefundExpired
		o.StatusChangedAt = now
		r.db.state.orders[id] = o
	}
	return int64(len(ids)), nil
}

func (r *fakeOrderRepo) ListExpiredBefore(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.reads++
	var ids []int64
	for id, o := range r.db.state.orders {
		if id > afterID && o.EligibleForPurge(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (r *fakeOrderRepo) LockExpiredWithTx(ctx context.Context, tx pgx.Tx, id int64, cutoff time.Time) (*ordermodel.Order, error) {
	if r.db.locked[id] {
		return nil, nil
	}
	o, ok := work(tx).orders[id]
	if !ok || !o.EligibleForPurge(cutoff) {
		return nil, nil
	}
	return &o, nil
}

func (r *fakeOrderRepo) DeleteWithTx(ctx context.Context, tx pgx.Tx, id int64) error {
	delete(work(tx).orders, id)
	return nil
}

// =====================================================
// REFUND REPOSITORY
// =====================================================

type fakeRefundRepo struct {
	db *memDB

	inStudyCalls int
	expiredCalls int
	lastLogin    string
}

func (r *fakeRefundRepo) FindByID(ctx context.Context, id int64) (*model.Refund, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	refund, ok := r.db.state.refunds[id]
	if !ok {
		return nil, model.ErrRefundNotFound
	}
	return &refund, nil
}

func (r *fakeRefundRepo) FindByIDWithTx(ctx context.Context, tx pgx.Tx, id int64) (*model.Refund, error) {
	refund, ok := work(tx).refunds[id]
	if !ok {
		return nil, model.ErrRefundNotFound
	}
	return &refund, nil
}

func (r *fakeRefundRepo) SaveWithTx(ctx context.Context, tx pgx.Tx, refund *model.Refund) error {
	w := work(tx)
	now := time.Now()
	if refund.IsNew() {
		refund.ID = w.nextRefundID
		w.nextRefundID++
	} else if existing, ok := w.refunds[refund.ID]; ok {
		refund.CreatedAt = existing.CreatedAt
	} else {
		return model.ErrRefundNotFound
	}
	refund.UpdatedAt = now
	w.refunds[refund.ID] = *refund
	return nil
}

func (r *fakeRefundRepo) FindAll(ctx context.Context) ([]*model.Refund, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*model.Refund, 0, len(r.db.state.refunds))
	for _, refund := range r.db.state.refunds {
		refund := refund
		out = append(out, &refund)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRefundRepo) DeleteWithTx(ctx context.Context, tx pgx.Tx, id int64) error {
	delete(work(tx).refunds, id)
	return nil
}

func (r *fakeRefundRepo) CountActiveByOrderWithTx(ctx context.Context, tx pgx.Tx, orderID int64) (int, error) {
	n := 0
	for _, refund := range work(tx).refunds {
		if refund.OrderID == orderID && refund.IsUnderReview() {
			n++
		}
	}
	return n, nil
}

func (r *fakeRefundRepo) DeleteByOrderWithTx(ctx context.Context, tx pgx.Tx, orderID int64) (int64, error) {
	w := work(tx)
	var n int64
	for id, refund := range w.refunds {
		if refund.OrderID == orderID {
			delete(w.refunds, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeRefundRepo) ListInStudyRows(ctx context.Context) ([]model.InStudyRow, error) {
	r.inStudyCalls++
	return r.db.inStudyRows, nil
}

func (r *fakeRefundRepo) ListExpiredRowsByUser(ctx context.Context, login string) ([]model.ExpiredOrderRow, error) {
	r.expiredCalls++
	r.lastLogin = login
	return r.db.expiredRows[login], nil
}

// =====================================================
// CACHE / LOCK / AUTH
// =====================================================

type fakeCache struct {
	data     map[string][]byte
	deleted  []string
	patterns []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }

type fakeLocker struct {
	busy     bool
	err      error
	acquired int
	released int
	lastKey  string
	lastTTL  time.Duration
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (lock.Release, error) {
	l.lastKey, l.lastTTL = key, ttl
	if l.err != nil {
		return nil, l.err
	}
	if l.busy {
		return nil, fmt.Errorf("%w: %s", lock.ErrNotAcquired, key)
	}
	l.acquired++
	return func(ctx context.Context) error {
		l.released++
		return nil
	}, nil
}

type fakeAuth struct {
	login string
}

func (a fakeAuth) CurrentUserLogin(ctx context.Context) (string, bool) {
	return a.login, a.login != ""
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }
