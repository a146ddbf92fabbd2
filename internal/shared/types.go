package shared

// Asynq task types
const (
	TypeCleanupExpiredOrders = "refund:cleanup_expired_orders"
)

// Asynq queues
const (
	QueueRefund = "refund"
)

// Queues returns the queue priorities used by the worker.
func Queues() map[string]int {
	return map[string]int{
		QueueRefund: 10,
		"default":   5,
	}
}

// CleanupExpiredOrdersPayload is the payload of TypeCleanupExpiredOrders.
// TriggeredBy is "scheduler" for cron runs or "manual" for admin runs. The
// payload carries nothing per request so asynq.Unique can collapse duplicates.
type CleanupExpiredOrdersPayload struct {
	TriggeredBy string `json:"triggered_by"`
}
