package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecom/internal/services"
	"ecom/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegion(t *testing.T) {
	r, err := services.ParseRegion("productsByKeyword")
	require.NoError(t, err)
	assert.Equal(t, services.RegionProductsByKeyword, r)
	assert.Equal(t, 2*time.Hour, r.TTL())
	assert.Equal(t, 6*time.Hour, services.RegionCategories.TTL())
	assert.Equal(t, 15*time.Minute, services.RegionUserDetails.TTL())

	_, err = services.ParseRegion("widgets")
	assert.ErrorIs(t, err, services.ErrUnknownRegion)
}

func TestGetOrCompute_HitAfterMiss(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	svc := services.NewCacheService(cache.NewMemoryStore(), rec)

	calls := 0
	compute := func(context.Context) ([]string, error) {
		calls++
		return []string{"shoes", "hats"}, nil
	}

	first, err := services.GetOrCompute(ctx, svc, services.RegionCategories, "0_10_name_asc", compute)
	require.NoError(t, err)
	second, err := services.GetOrCompute(ctx, svc, services.RegionCategories, "0_10_name_asc", compute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, rec.misses["categories"])
	assert.Equal(t, 1, rec.hits["categories"])
}

func TestGetOrCompute_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	svc := services.NewCacheService(store, nil)
	boom := errors.New("boom")

	_, err := services.GetOrCompute(ctx, svc, services.RegionProducts, "k", func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len())
}

func TestGetOrCompute_UndecodableEntryIsRecomputed(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "ecom:orders:user:1", []byte("{not json"), time.Hour))
	svc := services.NewCacheService(store, nil)

	got, err := services.GetOrCompute(ctx, svc, services.RegionOrders, "user:1", func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestGetOrCompute_DegradesWhenStoreIsDown(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	svc := services.NewCacheService(brokenStore{}, rec)

	calls := 0
	for i := 0; i < 3; i++ {
		got, err := services.GetOrCompute(ctx, svc, services.RegionProducts, "0_10_name_asc", func(context.Context) (string, error) {
			calls++
			return "from database", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "from database", got)
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, rec.errors["products"])

	assert.Error(t, svc.EvictAll(ctx))
	assert.NotPanics(t, func() { svc.Invalidate(ctx, services.RegionCarts) })
}

func TestEvictAll_ForcesRecompute(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	store := cache.NewMemoryStore()
	svc := services.NewCacheService(store, rec)

	calls := 0
	compute := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}
	regions := []services.Region{
		services.RegionProducts, services.RegionCarts, services.RegionUserDetails, services.RegionSellers,
	}
	for _, r := range regions {
		_, err := services.GetOrCompute(ctx, svc, r, "k", compute)
		require.NoError(t, err)
	}
	require.Equal(t, 4, store.Len())

	require.NoError(t, svc.EvictAll(ctx))
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 1, rec.evictions["sellers"])

	_, err := services.GetOrCompute(ctx, svc, services.RegionProducts, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, 5, calls)
}

func TestEvictionScopes(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	svc := services.NewCacheService(store, nil)

	seed := func(r services.Region, key string) {
		_, err := services.GetOrCompute(ctx, svc, r, key, func(context.Context) (string, error) { return key, nil })
		require.NoError(t, err)
	}
	seed(services.RegionProducts, "a")
	seed(services.RegionProductsByCategory, "c1:a")
	seed(services.RegionProductsByKeyword, "shoe:a")
	seed(services.RegionCategories, "a")
	seed(services.RegionUserDetails, "alice")
	seed(services.RegionUserDetails, "bob")

	require.NoError(t, svc.ClearProductCaches(ctx))
	assert.Equal(t, 3, store.Len())

	require.NoError(t, svc.EvictUserDetails(ctx, "alice"))
	assert.Equal(t, 2, store.Len())
	_, err := store.Get(ctx, "ecom:userDetails:bob")
	assert.NoError(t, err)

	require.NoError(t, svc.ClearUserCaches(ctx))
	require.NoError(t, svc.ClearCategoryCaches(ctx))
	assert.Equal(t, 0, store.Len())
}
