package model

import (
	"time"
)

// =====================================================
// ORDER STATUS CONSTANTS
// =====================================================
// Only the refund related statuses are owned here; orders may carry
// other statuses set by the ordering flow.
const (
	OrderStatusCreated           = "created"
	OrderStatusRefundUnderReview = "refund_under_review"
	OrderStatusRefundExpired     = "refund_expired"
	OrderStatusRefundApproved    = "refund_approved"
	OrderStatusRefundRejected    = "refund_rejected"
)

// =====================================================
// ENTITY: Order
// =====================================================
type Order struct {
	ID              int64     `json:"id"`
	UserLogin       string    `json:"user_login"`
	Address         string    `json:"address"`
	CourierID       *int64    `json:"courier_id,omitempty"`
	Status          string    `json:"status"`
	RefundDeadline  time.Time `json:"refund_deadline"`
	StatusChangedAt time.Time `json:"status_changed_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RefundWindowClosed reports whether a refund can no longer be requested at now.
func (o *Order) RefundWindowClosed(now time.Time) bool {
	return o.RefundDeadline.Before(now)
}

// EligibleForPurge reports whether the order has been expired for at least
// the retention window ending at cutoff.
func (o *Order) EligibleForPurge(cutoff time.Time) bool {
	return o.Status == OrderStatusRefundExpired && !o.StatusChangedAt.After(cutoff)
}
