package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-backend/internal/config"
)

func newTestEnqueuer(t *testing.T) (*TaskEnqueuer, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	jobCfg := config.JobConfig{MaxRetry: 2, Timeout: time.Minute, LockTTL: 15 * time.Minute}
	return NewTaskEnqueuer(client, jobCfg), mr
}

func TestEnqueueCleanup_SecondRequestIsRejected(t *testing.T) {
	enqueuer, _ := newTestEnqueuer(t)
	ctx := context.Background()

	taskID, err := enqueuer.EnqueueCleanup(ctx, "ops")
	require.NoError(t, err)
	assert.NotEmpty(t, taskID)

	_, err = enqueuer.EnqueueCleanup(ctx, "another-admin")
	assert.ErrorIs(t, err, ErrCleanupAlreadyQueued)
}

func TestEnqueueCleanup_AllowedAfterUniqueWindow(t *testing.T) {
	enqueuer, mr := newTestEnqueuer(t)
	ctx := context.Background()

	_, err := enqueuer.EnqueueCleanup(ctx, "ops")
	require.NoError(t, err)

	mr.FastForward(16 * time.Minute)

	_, err = enqueuer.EnqueueCleanup(ctx, "ops")
	assert.NoError(t, err)
}
