package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"delivery-backend/internal/domains/refund/model"
	"delivery-backend/pkg/database"
)

// =====================================================
// REFUND REPOSITORY INTERFACE
// =====================================================
type RefundRepository interface {
	// FindByID returns model.ErrRefundNotFound when the refund does not exist.
	FindByID(ctx context.Context, id int64) (*model.Refund, error)

	// FindByIDWithTx reads the refund inside tx and locks its row.
	FindByIDWithTx(ctx context.Context, tx pgx.Tx, id int64) (*model.Refund, error)

	// SaveWithTx inserts a new refund (ID == 0) and fills ID and timestamps,
	// or overwrites the refund with the given ID. Returns model.ErrRefundNotFound
	// when no refund has that ID.
	SaveWithTx(ctx context.Context, tx pgx.Tx, refund *model.Refund) error

	// FindAll lists every refund ordered by id.
	FindAll(ctx context.Context) ([]*model.Refund, error)

	// DeleteWithTx deletes by id; a missing row is not an error.
	DeleteWithTx(ctx context.Context, tx pgx.Tx, id int64) error

	// CountActiveByOrderWithTx counts refunds under review for an order.
	CountActiveByOrderWithTx(ctx context.Context, tx pgx.Tx, orderID int64) (int, error)

	// DeleteByOrderWithTx removes every refund of an order, returning how many were deleted.
	DeleteByOrderWithTx(ctx context.Context, tx pgx.Tx, orderID int64) (int64, error)

	// =====================================================
	// REPORTS
	// =====================================================

	// ListInStudyRows joins refunds under review with their order and courier.
	ListInStudyRows(ctx context.Context) ([]model.InStudyRow, error)

	// ListExpiredRowsByUser joins a user's expired orders with invoice and courier.
	ListExpiredRowsByUser(ctx context.Context, login string) ([]model.ExpiredOrderRow, error)
}

// =====================================================
// TRANSACTION MANAGER
// =====================================================
type TransactionManager interface {
	// BeginTx starts a new database transaction
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CommitTx commits transaction
	CommitTx(ctx context.Context, tx pgx.Tx) error

	// RollbackTx rolls back transaction; rolling back a finished tx is a no-op.
	RollbackTx(ctx context.Context, tx pgx.Tx) error

	// WithinTx runs fn in a transaction, committing on nil and rolling back otherwise.
	WithinTx(ctx context.Context, fn database.TxFunc) error
}
