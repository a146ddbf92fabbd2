package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-backend/internal/domains/order/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &postgresOrderRepository{
		pool: pool,
	}
}

const orderColumns = `
	id, user_login, address, courier_id, status,
	refund_deadline, status_changed_at, created_at, updated_at
`

func scanOrder(row pgx.Row) (*model.Order, error) {
	order := &model.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserLogin,
		&order.Address,
		&order.CourierID,
		&order.Status,
		&order.RefundDeadline,
		&order.StatusChangedAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// =====================================================
// REFUND FLOW
// =====================================================

func (r *postgresOrderRepository) GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	order, err := scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}

	return order, nil
}

func (r *postgresOrderRepository) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id int64, status string) error {
	query := `
		UPDATE orders
		SET status = $1,
			status_changed_at = CASE WHEN status <> $1 THEN NOW() ELSE status_changed_at END,
			updated_at = NOW()
		WHERE id = $2
	`

	result, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// =====================================================
// EXPIRED ORDER CLEANUP
// =====================================================

func (r *postgresOrderRepository) MarkRefundExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	// Rows held by a live refund request are skipped; the next sweep picks them up.
	query := `
		WITH batch AS (
			SELECT id
			FROM orders
			WHERE status = $2
			  AND refund_deadline < $3
			ORDER BY id
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		UPDATE orders o
		SET status = $1,
			status_changed_at = $3,
			updated_at = $3
		FROM batch
		WHERE o.id = batch.id
	`

	result, err := r.pool.Exec(ctx, query,
		model.OrderStatusRefundExpired,
		model.OrderStatusCreated,
		now,
		limit,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired orders: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *postgresOrderRepository) ListExpiredBefore(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]int64, error) {
	query := `
		SELECT id
		FROM orders
		WHERE status = $1
		  AND status_changed_at <= $2
		  AND id > $3
		ORDER BY id
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, model.OrderStatusRefundExpired, cutoff, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired orders: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan expired order ids: %w", err)
	}

	return ids, nil
}

func (r *postgresOrderRepository) LockExpiredWithTx(ctx context.Context, tx pgx.Tx, id int64, cutoff time.Time) (*model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1
		  AND status = $2
		  AND status_changed_at <= $3
		FOR UPDATE SKIP LOCKED
	`

	order, err := scanOrder(tx.QueryRow(ctx, query, id, model.OrderStatusRefundExpired, cutoff))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock expired order %d: %w", id, err)
	}

	return order, nil
}

func (r *postgresOrderRepository) DeleteWithTx(ctx context.Context, tx pgx.Tx, id int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	return nil
}
