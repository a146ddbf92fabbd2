package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "refund:report:in_study", []string{"a", "b"}, time.Minute))

	var got []string
	found, err := c.Get(ctx, "refund:report:in_study", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, got)

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, "refund:report:in_study", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_DeletePattern(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "refund:report:in_study", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "refund:report:expired:ana", 2, time.Minute))
	require.NoError(t, c.Set(ctx, "other:key", 3, time.Minute))

	require.NoError(t, c.DeletePattern(ctx, "refund:report:*"))

	assert.False(t, mr.Exists("refund:report:in_study"))
	assert.False(t, mr.Exists("refund:report:expired:ana"))
	assert.True(t, mr.Exists("other:key"))
}
