package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"delivery-backend/internal/config"
)

// ErrCleanupAlreadyQueued is returned when a manual sweep is still pending.
var ErrCleanupAlreadyQueued = errors.New("cleanup already queued")

// defaultUniqueTTL applies when the lock TTL is below asynq's one second minimum.
const defaultUniqueTTL = 15 * time.Minute

// TaskEnqueuer pushes refund tasks to the worker.
type TaskEnqueuer struct {
	client    *asynq.Client
	jobConfig config.JobConfig
}

func NewTaskEnqueuer(client *asynq.Client, jobConfig config.JobConfig) *TaskEnqueuer {
	return &TaskEnqueuer{client: client, jobConfig: jobConfig}
}

// EnqueueCleanup queues a manual sweep on behalf of requestedBy. A second
// request while one is pending, or within the lock TTL, returns
// ErrCleanupAlreadyQueued.
func (e *TaskEnqueuer) EnqueueCleanup(ctx context.Context, requestedBy string) (string, error) {
	task, err := NewCleanupExpiredOrdersTask(TriggeredByManual)
	if err != nil {
		return "", err
	}

	uniqueTTL := e.jobConfig.LockTTL
	if uniqueTTL < time.Second {
		uniqueTTL = defaultUniqueTTL
	}
	opts := append(CleanupTaskOptions(e.jobConfig), asynq.Unique(uniqueTTL))

	info, err := e.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
			log.Info().Str("requested_by", requestedBy).Msg("expired order cleanup already queued")
			return "", fmt.Errorf("%w: %v", ErrCleanupAlreadyQueued, err)
		}
		return "", fmt.Errorf("enqueue cleanup: %w", err)
	}

	log.Info().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Str("requested_by", requestedBy).
		Msg("expired order cleanup enqueued")

	return info.ID, nil
}
