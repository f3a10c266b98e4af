package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyHasPrefix(t *testing.T) {
	k := NewKey("notifications", "order", "false")

	assert.True(t, k.HasPrefix(NewKey("notifications")))
	assert.True(t, k.HasPrefix(k))
	assert.False(t, k.HasPrefix(NewKey("notifications-snoozed")))
	assert.False(t, NewKey("notifications").HasPrefix(k))
}

func TestMemoryCacheInvalidateByPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, NewKey("notifications", "all"), []string{"a"}))
	require.NoError(t, c.Set(ctx, NewKey("notifications", "unread"), []string{"b"}))
	require.NoError(t, c.Set(ctx, NewKey("notification-groups"), []string{"g"}))

	require.NoError(t, c.Invalidate(ctx, NewKey("notifications")))

	var out []string
	assert.ErrorIs(t, c.Get(ctx, NewKey("notifications", "all"), &out), ErrMiss)
	assert.ErrorIs(t, c.Get(ctx, NewKey("notifications", "unread"), &out), ErrMiss)
	require.NoError(t, c.Get(ctx, NewKey("notification-groups"), &out))
	assert.Equal(t, []string{"g"}, out)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	value := map[string]int{"a": 1}
	require.NoError(t, c.Set(ctx, NewKey("k"), value))
	value["a"] = 2

	var out map[string]int
	require.NoError(t, c.Get(ctx, NewKey("k"), &out))
	assert.Equal(t, 1, out["a"])
}

func TestLoadReadsThroughOnce(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	calls := 0
	fetch := func(context.Context) ([]int, error) {
		calls++
		return []int{1, 2}, nil
	}

	first, err := Load(ctx, c, NewKey("nums"), fetch)
	require.NoError(t, err)
	second, err := Load(ctx, c, NewKey("nums"), fetch)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestLoadDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	boom := errors.New("boom")

	_, err := Load(ctx, c, NewKey("nums"), func(context.Context) ([]int, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestRedisPrefixPatternEscapesGlob(t *testing.T) {
	r := NewRedisCache(nil, "ns", time.Minute)
	assert.Equal(t, `ns:reactions|m\*1|*`, r.prefixPattern(NewKey("reactions", "m*1")))
}

func TestForUserIsolatesSharedBackend(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryCache()
	alice := ForUser(shared, "alice")
	bob := ForUser(shared, "bob")

	require.NoError(t, alice.Set(ctx, NewKey("conversations"), []string{"alice-private"}))

	var out []string
	assert.ErrorIs(t, bob.Get(ctx, NewKey("conversations"), &out), ErrMiss)

	require.NoError(t, bob.Set(ctx, NewKey("conversations"), []string{"bob-private"}))
	require.NoError(t, bob.Invalidate(ctx, NewKey("conversations")))

	require.NoError(t, alice.Get(ctx, NewKey("conversations"), &out))
	assert.Equal(t, []string{"alice-private"}, out)
	assert.Equal(t, 1, shared.Len())
}

func TestForUserRedisKeys(t *testing.T) {
	r := NewRedisCache(nil, "storefront", time.Minute)
	bob := ForUser(r, "bob")

	assert.Equal(t, "storefront:user|bob|conversations", r.storageKey(bob.key(NewKey("conversations"))))
	assert.Equal(t, `storefront:user|bob|notifications|*`, r.prefixPattern(bob.key(NewKey("notifications"))))
}

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedisCache(client, "test-"+time.Now().Format("150405.000"), time.Minute)

	require.NoError(t, c.Set(ctx, NewKey("notifications", "all"), []string{"a"}))
	require.NoError(t, c.Set(ctx, NewKey("notifications-snoozed"), []string{"s"}))

	var out []string
	require.NoError(t, c.Get(ctx, NewKey("notifications", "all"), &out))
	assert.Equal(t, []string{"a"}, out)

	require.NoError(t, c.Invalidate(ctx, NewKey("notifications")))
	assert.ErrorIs(t, c.Get(ctx, NewKey("notifications", "all"), &out), ErrMiss)
	require.NoError(t, c.Get(ctx, NewKey("notifications-snoozed"), &out))
}
