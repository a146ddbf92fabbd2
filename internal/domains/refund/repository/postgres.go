package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	ordermodel "delivery-backend/internal/domains/order/model"
	"delivery-backend/internal/domains/refund/model"
)

// =====================================================
// REFUND REPOSITORY IMPLEMENTATION
// =====================================================
type refundRepository struct {
	pool *pgxpool.Pool
}

func NewRefundRepository(pool *pgxpool.Pool) RefundRepository {
	return &refundRepository{pool: pool}
}

const refundColumns = `
	id, order_id, status, description, courier_id,
	created_at, resolved_at, updated_at
`

func scanRefund(row pgx.Row) (*model.Refund, error) {
	refund := &model.Refund{}
	err := row.Scan(
		&refund.ID,
		&refund.OrderID,
		&refund.Status,
		&refund.Description,
		&refund.CourierID,
		&refund.CreatedAt,
		&refund.ResolvedAt,
		&refund.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// =====================================================
// TRANSACTION-AWARE METHODS
// =====================================================

func (r *refundRepository) FindByIDWithTx(ctx context.Context, tx pgx.Tx, id int64) (*model.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1 FOR UPDATE`

	refund, err := scanRefund(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to get refund %d: %w", id, err)
	}
	return refund, nil
}

func (r *refundRepository) SaveWithTx(ctx context.Context, tx pgx.Tx, refund *model.Refund) error {
	if refund.IsNew() {
		return r.insertWithTx(ctx, tx, refund)
	}

	// Ids come from the sequence only; an unknown id is not inserted.
	query := `
		UPDATE refunds SET
			order_id = $2,
			status = $3,
			description = $4,
			courier_id = $5,
			resolved_at = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		refund.ID,
		refund.OrderID,
		refund.Status,
		refund.Description,
		refund.CourierID,
		refund.ResolvedAt,
	).Scan(&refund.CreatedAt, &refund.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrRefundNotFound
		}
		return fmt.Errorf("failed to save refund %d: %w", refund.ID, err)
	}

	return nil
}

func (r *refundRepository) insertWithTx(ctx context.Context, tx pgx.Tx, refund *model.Refund) error {
	query := `
		INSERT INTO refunds (
			order_id, status, description, courier_id,
			resolved_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $6
		)
		RETURNING id, updated_at
	`

	err := tx.QueryRow(ctx, query,
		refund.OrderID,
		refund.Status,
		refund.Description,
		refund.CourierID,
		refund.ResolvedAt,
		refund.CreatedAt,
	).Scan(&refund.ID, &refund.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}

	return nil
}

func (r *refundRepository) DeleteWithTx(ctx context.Context, tx pgx.Tx, id int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM refunds WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete refund %d: %w", id, err)
	}
	return nil
}

func (r *refundRepository) CountActiveByOrderWithTx(ctx context.Context, tx pgx.Tx, orderID int64) (int, error) {
	query := `SELECT COUNT(*) FROM refunds WHERE order_id = $1 AND status = $2`

	var count int
	if err := tx.QueryRow(ctx, query, orderID, model.RefundStatusUnderReview).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active refunds: %w", err)
	}
	return count, nil
}

func (r *refundRepository) DeleteByOrderWithTx(ctx context.Context, tx pgx.Tx, orderID int64) (int64, error) {
	result, err := tx.Exec(ctx, `DELETE FROM refunds WHERE order_id = $1`, orderID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete refunds of order %d: %w", orderID, err)
	}
	return result.RowsAffected(), nil
}

// =====================================================
// STANDALONE METHODS
// =====================================================

func (r *refundRepository) FindByID(ctx context.Context, id int64) (*model.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`

	refund, err := scanRefund(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to get refund %d: %w", id, err)
	}
	return refund, nil
}

func (r *refundRepository) FindAll(ctx context.Context) ([]*model.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	defer rows.Close()

	refunds := make([]*model.Refund, 0)
	for rows.Next() {
		refund, err := scanRefund(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refund: %w", err)
		}
		refunds = append(refunds, refund)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return refunds, nil
}

// =====================================================
// REPORTS
// =====================================================
// Dates leave the database as ISO-8601 text in UTC; the model package types them.
// Only orders with an assigned courier (and an invoice, for expired orders) are reported.

func (r *refundRepository) ListInStudyRows(ctx context.Context) ([]model.InStudyRow, error) {
	query := `
		SELECT
			r.id,
			to_char(o.created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
			c.name,
			to_char(r.created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS.US"Z"'),
			r.status
		FROM refunds r
		JOIN orders o ON o.id = r.order_id
		JOIN couriers c ON c.id = COALESCE(r.courier_id, o.courier_id)
		WHERE r.status = $1
		ORDER BY r.created_at, r.id
	`

	rows, err := r.pool.Query(ctx, query, model.RefundStatusUnderReview)
	if err != nil {
		return nil, fmt.Errorf("failed to query refunds in study: %w", err)
	}
	defer rows.Close()

	result := make([]model.InStudyRow, 0)
	for rows.Next() {
		var row model.InStudyRow
		if err := rows.Scan(
			&row.RefundID,
			&row.OrderDate,
			&row.CourierName,
			&row.RefundDate,
			&row.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan refund in study: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func (r *refundRepository) ListExpiredRowsByUser(ctx context.Context, login string) ([]model.ExpiredOrderRow, error) {
	query := `
		SELECT
			o.id,
			to_char(o.created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'),
			o.address,
			i.amount::text,
			i.id,
			c.name,
			c.id,
			to_char(o.refund_deadline AT TIME ZONE 'UTC', 'YYYY-MM-DD')
		FROM orders o
		JOIN invoices i ON i.order_id = o.id
		JOIN couriers c ON c.id = o.courier_id
		WHERE o.user_login = $1
		  AND o.status = $2
		ORDER BY o.refund_deadline DESC, o.id
	`

	rows, err := r.pool.Query(ctx, query, login, ordermodel.OrderStatusRefundExpired)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired orders: %w", err)
	}
	defer rows.Close()

	result := make([]model.ExpiredOrderRow, 0)
	for rows.Next() {
		var row model.ExpiredOrderRow
		if err := rows.Scan(
			&row.OrderID,
			&row.OrderDate,
			&row.Address,
			&row.InvoiceAmount,
			&row.InvoiceID,
			&row.CourierName,
			&row.CourierID,
			&row.ExpiryDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expired order: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
