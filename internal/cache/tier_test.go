package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/medqa/internal/types"
)

func exerciseTier(t *testing.T, tier Tier) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := tier.Get(ctx, "qa:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tier.Set(ctx, "qa:1", []byte("one"), time.Minute))
	require.NoError(t, tier.Set(ctx, "qa:2", []byte("two"), time.Minute))
	require.NoError(t, tier.Set(ctx, "kg:1", []byte("kg"), time.Minute))

	v, ok, err := tier.Get(ctx, "qa:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("one"), v)

	require.NoError(t, tier.Delete(ctx, "qa:1"))
	_, ok, _ = tier.Get(ctx, "qa:1")
	assert.False(t, ok)

	n, err := tier.DeletePrefix(ctx, "qa:")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, _ = tier.Get(ctx, "kg:1")
	assert.True(t, ok)

	require.NoError(t, tier.Clear(ctx))
	_, ok, _ = tier.Get(ctx, "kg:1")
	assert.False(t, ok)
}

func TestLocalTier(t *testing.T) {
	exerciseTier(t, newLocal(t))
}

func TestLocalTier_Expiry(t *testing.T) {
	ctx := context.Background()
	tier := newLocal(t)

	require.NoError(t, tier.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	assert.Eventually(t, func() bool {
		_, ok, _ := tier.Get(ctx, "k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestLocalTier_Capacity(t *testing.T) {
	ctx := context.Background()
	tier := NewLocalTier(2)
	defer tier.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, tier.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute))
	}
	assert.Equal(t, 2, tier.Len())
}

func TestLocalTier_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	tier := newLocal(t)

	buf := []byte("abc")
	require.NoError(t, tier.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	v, _, _ := tier.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), v)
}

func TestRedisTier(t *testing.T) {
	_, tier := newRedis(t)
	exerciseTier(t, tier)
}

func TestRedisTier_Namespace(t *testing.T) {
	ctx := context.Background()
	mr, tier := newRedis(t)

	require.NoError(t, tier.Set(ctx, "qa:1", []byte("v"), time.Hour))
	assert.True(t, mr.Exists("medqa:qa:1"))
	assert.Equal(t, time.Hour, mr.TTL("medqa:qa:1"))

	require.NoError(t, mr.Set("foreign", "x"))
	require.NoError(t, tier.Clear(ctx))
	assert.Equal(t, []string{"foreign"}, mr.Keys())
}

func TestRedisTier_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, tier := newRedis(t)

	require.NoError(t, tier.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := tier.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisTier_TTL(t *testing.T) {
	ctx := context.Background()
	mr, tier := newRedis(t)

	require.NoError(t, tier.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(20 * time.Second)

	d, err := tier.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, d)

	d, err = tier.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.Negative(t, d)
}

func TestRedisTier_PrefixIsLiteral(t *testing.T) {
	ctx := context.Background()
	_, tier := newRedis(t)

	require.NoError(t, tier.Set(ctx, "qa*1", []byte("v"), time.Minute))
	require.NoError(t, tier.Set(ctx, "qab", []byte("v"), time.Minute))

	n, err := tier.DeletePrefix(ctx, "qa*")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, _ := tier.Get(ctx, "qab")
	assert.True(t, ok)
}

func TestRedisTier_ManyKeys(t *testing.T) {
	ctx := context.Background()
	_, tier := newRedis(t)

	for i := 0; i < 250; i++ {
		require.NoError(t, tier.Set(ctx, fmt.Sprintf("qa:%03d", i), []byte("v"), time.Minute))
	}
	n, err := tier.DeletePrefix(ctx, "qa:")
	require.NoError(t, err)
	assert.Equal(t, 250, n)
}

func TestRedisTier_Errors(t *testing.T) {
	ctx := context.Background()
	mr, tier := newRedis(t)
	mr.SetError("ERR simulated outage")

	_, _, err := tier.Get(ctx, "k")
	assert.Equal(t, types.CACHE_UNAVAILABLE, types.CodeOf(err))
	assert.Error(t, tier.Set(ctx, "k", []byte("v"), time.Minute))
	assert.Error(t, tier.Ping(ctx))
}

func TestRedisTierWithClient(t *testing.T) {
	mr, _ := newRedis(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	tier := NewRedisTierWithClient(client, "")
	require.NoError(t, tier.Close())
	require.NoError(t, client.Ping(context.Background()).Err())
}
