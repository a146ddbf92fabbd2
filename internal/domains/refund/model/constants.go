package model

// =====================================================
// REFUND STATUS
// =====================================================
const (
	RefundStatusUnderReview = "under_review"
	RefundStatusApproved    = "approved"
	RefundStatusRejected    = "rejected"
	RefundStatusClosed      = "closed"
)

var ValidRefundStatuses = []string{
	RefundStatusUnderReview,
	RefundStatusApproved,
	RefundStatusRejected,
	RefundStatusClosed,
}

// IsValidRefundStatus checks whether status is a known refund status.
func IsValidRefundStatus(status string) bool {
	for _, s := range ValidRefundStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func refundStatusValues() []interface{} {
	values := make([]interface{}, len(ValidRefundStatuses))
	for i, s := range ValidRefundStatuses {
		values[i] = s
	}
	return values
}

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	ErrCodeNotFound            = "REF001"
	ErrCodeInvalidRequest      = "REF002"
	ErrCodeDeadlineExpired     = "REF003"
	ErrCodeUnauthenticated     = "REF004"
	ErrCodeMalformedRow        = "REF005"
	ErrCodeRefundAlreadyActive = "REF006"
)

// DeadlineExpiredMessage is shown to the customer when the refund window is closed.
const DeadlineExpiredMessage = "Fecha limite vencida"

// Report names used in malformed row diagnostics.
const (
	ReportInStudy        = "refunds_in_study"
	ReportExpiredOrders  = "expired_orders"
	MaxDescriptionLength = 500
)
