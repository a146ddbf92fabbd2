package model

import (
	"time"
)

// =====================================================
// REFUND ENTITY
// =====================================================
type Refund struct {
	ID          int64      `json:"id" db:"id"`
	OrderID     int64      `json:"order_id" db:"order_id"`
	Status      string     `json:"status" db:"status"`
	Description *string    `json:"description,omitempty" db:"description"`
	CourierID   *int64     `json:"courier_id,omitempty" db:"courier_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsNew reports whether the refund has not been persisted yet.
func (r *Refund) IsNew() bool {
	return r.ID == 0
}

// IsUnderReview checks if the refund is still waiting for an operator.
func (r *Refund) IsUnderReview() bool {
	return r.Status == RefundStatusUnderReview
}
