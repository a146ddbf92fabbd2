package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"delivery-backend/internal/domains/order/model"
)

// =====================================================
// ORDER REPOSITORY INTERFACE
// =====================================================
// OrderRepository is the order store seen from the refund flow. Orders are
// created and owned by the ordering flow; refunds only read them, move their
// status and purge them once expired.
type OrderRepository interface {
	// GetByIDForUpdateWithTx loads the order and locks its row until tx ends.
	// Returns model.ErrOrderNotFound when absent.
	GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error)

	// UpdateStatusWithTx sets the order status; status_changed_at moves only when the status changes.
	UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id int64, status string) error

	// MarkRefundExpired moves up to limit created orders whose deadline passed
	// before now to refund_expired, skipping rows locked by other transactions.
	MarkRefundExpired(ctx context.Context, now time.Time, limit int) (int64, error)

	// ListExpiredBefore pages ids of orders expired at or before cutoff, ordered by id.
	ListExpiredBefore(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]int64, error)

	// LockExpiredWithTx re-checks purge eligibility under a row lock.
	// Returns nil, nil when the order changed state or is locked by another transaction.
	LockExpiredWithTx(ctx context.Context, tx pgx.Tx, id int64, cutoff time.Time) (*model.Order, error)

	// DeleteWithTx removes the order row.
	DeleteWithTx(ctx context.Context, tx pgx.Tx, id int64) error
}
