package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"delivery-backend/internal/domains/refund/service"
	"delivery-backend/internal/shared"
	"delivery-backend/pkg/logger"
)

// CleanupExpiredOrdersHandler runs the expired order sweep for
// shared.TypeCleanupExpiredOrders tasks.
type CleanupExpiredOrdersHandler struct {
	cleanupService service.CleanupService
	timeout        time.Duration
}

func NewCleanupExpiredOrdersHandler(cleanupService service.CleanupService, timeout time.Duration) *CleanupExpiredOrdersHandler {
	return &CleanupExpiredOrdersHandler{
		cleanupService: cleanupService,
		timeout:        timeout,
	}
}

func (h *CleanupExpiredOrdersHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.CleanupExpiredOrdersPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("Unmarshal cleanup payload failed", err)
			// Payload hỏng thì retry cũng vô ích
			return fmt.Errorf("invalid cleanup payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	log.Info().
		Str("triggered_by", payload.TriggeredBy).
		Msg("Starting expired order cleanup")

	result, err := h.cleanupService.CleanupExpiredOrders(ctx)
	if err != nil {
		logger.Error("Expired order cleanup failed", err)
		return err
	}

	if result.Skipped {
		log.Info().Str("run_id", result.RunID).Msg("Expired order cleanup skipped, another run holds the lock")
		return nil
	}

	log.Info().
		Str("run_id", result.RunID).
		Int64("marked", result.Marked).
		Int("purged", result.Purged).
		Int("skipped_orders", result.SkippedOrders).
		Msg("Successfully cleaned up expired orders")

	return nil
}
