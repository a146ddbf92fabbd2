package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-backend/internal/config"
	"delivery-backend/internal/shared"
)

func TestNewCleanupExpiredOrdersTask(t *testing.T) {
	task, err := NewCleanupExpiredOrdersTask(TriggeredByManual)
	require.NoError(t, err)

	assert.Equal(t, shared.TypeCleanupExpiredOrders, task.Type())

	var payload shared.CleanupExpiredOrdersPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, TriggeredByManual, payload.TriggeredBy)
}

func TestCleanupPayloadIsStablePerTrigger(t *testing.T) {
	for _, trigger := range []string{TriggeredByScheduler, TriggeredByManual} {
		first, err := NewCleanupExpiredOrdersTask(trigger)
		require.NoError(t, err)
		second, err := NewCleanupExpiredOrdersTask(trigger)
		require.NoError(t, err)

		assert.Equal(t, first.Payload(), second.Payload(), trigger)
	}
}

func TestCleanupTaskOptions(t *testing.T) {
	opts := CleanupTaskOptions(config.JobConfig{MaxRetry: 2, Timeout: 10 * time.Minute})

	require.Len(t, opts, 3)
	assert.Equal(t, shared.QueueRefund, opts[0].Value())
	assert.Equal(t, 2, opts[1].Value())
	assert.Equal(t, 10*time.Minute, opts[2].Value())
}
