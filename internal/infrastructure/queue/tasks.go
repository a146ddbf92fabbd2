package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"delivery-backend/internal/config"
	"delivery-backend/internal/shared"
)

// Trigger sources of a sweep.
const (
	TriggeredByScheduler = "scheduler"
	TriggeredByManual    = "manual"
)

// NewCleanupExpiredOrdersTask builds the sweep task. Tasks with the same
// trigger have byte-identical payloads.
func NewCleanupExpiredOrdersTask(triggeredBy string) (*asynq.Task, error) {
	payload, err := json.Marshal(shared.CleanupExpiredOrdersPayload{
		TriggeredBy: triggeredBy,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal cleanup payload: %w", err)
	}
	return asynq.NewTask(shared.TypeCleanupExpiredOrders, payload), nil
}

// CleanupTaskOptions are shared by the cron entry and manual runs.
func CleanupTaskOptions(cfg config.JobConfig) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(shared.QueueRefund),
		asynq.MaxRetry(cfg.MaxRetry),
		asynq.Timeout(cfg.Timeout),
	}
}
