package cache_test

import (
	"context"
	"testing"
	"time"

	"ecom/pkg/cache"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := cache.NewMemoryStore()

	_, err := s.Get(ctx, "ecom:products:1")
	assert.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, s.Set(ctx, "ecom:products:1", []byte(`{"id":"1"}`), time.Hour))
	val, err := s.Get(ctx, "ecom:products:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, string(val))
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := cache.NewMemoryStoreWithClock(clock.Now)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 30*time.Minute))

	clock.Advance(29 * time.Minute)
	_, err := s.Get(ctx, "k")
	assert.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	s := cache.NewMemoryStore()
	for _, k := range []string{"ecom:carts:alice", "ecom:carts:bob", "ecom:orders:alice"} {
		require.NoError(t, s.Set(ctx, k, []byte("x"), 0))
	}

	n, err := s.DeletePrefix(ctx, "ecom:carts:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.Get(ctx, "ecom:orders:alice")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "ecom:carts:bob")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := cache.NewMemoryStore()
	val := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", val, 0))
	val[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestRedisStore_Unreachable(t *testing.T) {
	ctx := context.Background()
	store, err := cache.Connect(ctx, &redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = store.Get(ctx, "ecom:products:1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, cache.ErrMiss)

	_, err = store.DeletePrefix(ctx, "ecom:products:")
	assert.Error(t, err)
}
