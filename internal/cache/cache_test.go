package cache

import (
	"context"
	"testing"
	"time"

	"smartshop_back_end/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCartStore_SaveGetClear(t *testing.T) {
	mr, client := newRedis(t)
	store := NewRedisCartStore(client)
	ctx := context.Background()

	items, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)

	want := []models.CartItem{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 1}}
	require.NoError(t, store.Save(ctx, "u1", want))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, mr.Exists("cart:u1"))
	assert.Equal(t, CartTTL, mr.TTL("cart:u1"))

	require.NoError(t, store.Clear(ctx, "u1"))
	assert.False(t, mr.Exists("cart:u1"))
}

func TestRedisCartStore_SaveEmptyClears(t *testing.T) {
	mr, client := newRedis(t)
	store := NewRedisCartStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "u1", []models.CartItem{{ProductID: "p1", Quantity: 1}}))
	require.NoError(t, store.Save(ctx, "u1", nil))
	assert.False(t, mr.Exists("cart:u1"))
}

func TestRedisCartStore_Subscribe(t *testing.T) {
	_, client := newRedis(t)
	store := NewRedisCartStore(client)
	ctx := context.Background()

	ch, closeFn, err := store.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, store.Save(ctx, "u1", []models.CartItem{{ProductID: "p1", Quantity: 1}}))

	select {
	case msg := <-ch:
		assert.Equal(t, CartUpdated, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("aucune notification reçue")
	}
}

func TestMemoryCartStore_SubscribeAndCopy(t *testing.T) {
	store := NewMemoryCartStore()
	ctx := context.Background()

	ch, closeFn, err := store.Subscribe(ctx, "u1")
	require.NoError(t, err)

	items := []models.CartItem{{ProductID: "p1", Quantity: 3}}
	require.NoError(t, store.Save(ctx, "u1", items))
	assert.Equal(t, CartUpdated, <-ch)

	items[0].Quantity = 99
	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, got[0].Quantity)

	require.NoError(t, store.Clear(ctx, "u1"))
	assert.Equal(t, CartCleared, <-ch)

	closeFn()
	closeFn()
	_, open := <-ch
	assert.False(t, open)
}

func TestRedisCounter_Window(t *testing.T) {
	mr, client := newRedis(t)
	counter := NewRedisCounter(client)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := counter.Increment(ctx, "rl:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	mr.FastForward(time.Minute + time.Second)
	n, err := counter.Increment(ctx, "rl:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryCounter_Window(t *testing.T) {
	counter := NewMemoryCounter()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	counter.now = func() time.Time { return now }
	ctx := context.Background()

	n, _ := counter.Increment(ctx, "k", time.Minute)
	assert.Equal(t, int64(1), n)
	n, _ = counter.Increment(ctx, "k", time.Minute)
	assert.Equal(t, int64(2), n)

	now = now.Add(2 * time.Minute)
	n, _ = counter.Increment(ctx, "k", time.Minute)
	assert.Equal(t, int64(1), n)
}

func TestJSONCaches(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	for name, c := range map[string]JSONCache{
		"redis":  NewRedisJSONCache(client),
		"memory": NewMemoryJSONCache(),
	} {
		t.Run(name, func(t *testing.T) {
			var out []string
			assert.False(t, c.Get(ctx, "categories", &out))

			c.Set(ctx, "categories", []string{"a", "b"}, time.Minute)
			require.True(t, c.Get(ctx, "categories", &out))
			assert.Equal(t, []string{"a", "b"}, out)

			c.Delete(ctx, "categories")
			assert.False(t, c.Get(ctx, "categories", &out))
		})
	}
}

func TestRedisAttempts_CooldownAfterMax(t *testing.T) {
	mr, client := newRedis(t)
	attempts := NewRedisAttempts(client)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		blocked, err := attempts.Hit(ctx, "login", "a@example.com", 3, 15*time.Minute)
		require.NoError(t, err)
		assert.False(t, blocked)
	}
	assert.Equal(t, "2", mustGet(t, mr, "login_attempts:a@example.com"))

	blocked, err := attempts.Hit(ctx, "login", "a@example.com", 3, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.False(t, mr.Exists("login_attempts:a@example.com"))

	left, err := attempts.Cooldown(ctx, "login", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, left)

	mr.FastForward(16 * time.Minute)
	left, err = attempts.Cooldown(ctx, "login", "a@example.com")
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestRedisAttempts_Reset(t *testing.T) {
	mr, client := newRedis(t)
	attempts := NewRedisAttempts(client)
	ctx := context.Background()

	_, err := attempts.Hit(ctx, "login", "b@example.com", 5, time.Minute)
	require.NoError(t, err)
	require.NoError(t, attempts.Reset(ctx, "login", "b@example.com"))
	assert.False(t, mr.Exists("login_attempts:b@example.com"))
}

func TestMemoryAttempts(t *testing.T) {
	attempts := NewMemoryAttempts()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	attempts.now = func() time.Time { return now }
	ctx := context.Background()

	blocked, _ := attempts.Hit(ctx, "register", "10.0.0.1", 2, 30*time.Minute)
	assert.False(t, blocked)
	blocked, _ = attempts.Hit(ctx, "register", "10.0.0.1", 2, 30*time.Minute)
	assert.True(t, blocked)

	left, _ := attempts.Cooldown(ctx, "register", "10.0.0.1")
	assert.Equal(t, 30*time.Minute, left)
	left, _ = attempts.Cooldown(ctx, "register", "10.0.0.2")
	assert.Zero(t, left)

	now = now.Add(31 * time.Minute)
	left, _ = attempts.Cooldown(ctx, "register", "10.0.0.1")
	assert.Zero(t, left)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
