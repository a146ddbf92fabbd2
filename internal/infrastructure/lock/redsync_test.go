package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedsyncLocker_SingleHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedsyncLocker(client)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "refund:cleanup:expired_orders", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "refund:cleanup:expired_orders", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, release(ctx))

	release, err = locker.Acquire(ctx, "refund:cleanup:expired_orders", time.Minute)
	require.NoError(t, err)
	assert.NoError(t, release(ctx))
}
