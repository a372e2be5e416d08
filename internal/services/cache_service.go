package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ecom/internal/metrics"
	"ecom/pkg/cache"
)

// Region names a family of cached values sharing one TTL.
type Region string

const (
	RegionProducts           Region = "products"
	RegionProductsByCategory Region = "productsByCategory"
	RegionProductsByKeyword  Region = "productsByKeyword"
	RegionCategories         Region = "categories"
	RegionCarts              Region = "carts"
	RegionOrders             Region = "orders"
	RegionUserDetails        Region = "userDetails"
	RegionSellers            Region = "sellers"
)

// regionTTLs is the fixed lifetime of entries per region.
var regionTTLs = map[Region]time.Duration{
	RegionProducts:           2 * time.Hour,
	RegionProductsByCategory: 2 * time.Hour,
	RegionProductsByKeyword:  2 * time.Hour,
	RegionCategories:         6 * time.Hour,
	RegionCarts:              30 * time.Minute,
	RegionOrders:             time.Hour,
	RegionUserDetails:        15 * time.Minute,
	RegionSellers:            30 * time.Minute,
}

var allRegions = []Region{
	RegionProducts,
	RegionProductsByCategory,
	RegionProductsByKeyword,
	RegionCategories,
	RegionCarts,
	RegionOrders,
	RegionUserDetails,
	RegionSellers,
}

var productRegions = []Region{RegionProducts, RegionProductsByCategory, RegionProductsByKeyword}

// ErrUnknownRegion is returned when a region name does not match any configured region.
var ErrUnknownRegion = errors.New("unknown cache region")

// ParseRegion validates a region name.
func ParseRegion(name string) (Region, error) {
	r := Region(name)
	if _, ok := regionTTLs[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, name)
	}
	return r, nil
}

// TTL returns the fixed lifetime of entries in r.
func (r Region) TTL() time.Duration { return regionTTLs[r] }

const keyPrefix = "ecom:"

// CacheService fronts expensive reads with a cache-aside store and owns eviction.
// Store failures never fail a read: the value is computed directly instead.
type CacheService struct {
	store   cache.Store
	metrics metrics.Recorder
}

// NewCacheService creates a new CacheService.
func NewCacheService(store cache.Store, rec metrics.Recorder) *CacheService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &CacheService{
		store:   store,
		metrics: rec,
	}
}

func regionPrefix(r Region) string { return keyPrefix + string(r) + ":" }

func storeKey(r Region, key string) string { return regionPrefix(r) + key }

// GetOrCompute returns the cached value of (region, key), computing and storing it on a miss.
func GetOrCompute[T any](ctx context.Context, s *CacheService, region Region, key string, compute func(context.Context) (T, error)) (T, error) {
	k := storeKey(region, key)

	raw, err := s.store.Get(ctx, k)
	switch {
	case err == nil:
		var cached T
		jsonErr := json.Unmarshal(raw, &cached)
		if jsonErr == nil {
			s.metrics.RecordCacheHit(string(region))
			return cached, nil
		}
		slog.Warn("discarding undecodable cache entry",
			slog.String("key", k),
			slog.String("error", jsonErr.Error()),
		)
		s.metrics.RecordCacheMiss(string(region))
	case errors.Is(err, cache.ErrMiss):
		s.metrics.RecordCacheMiss(string(region))
	default:
		s.metrics.RecordCacheError(string(region))
		slog.Warn("cache unavailable, reading through",
			slog.String("key", k),
			slog.String("error", err.Error()),
		)
		return compute(ctx)
	}

	val, err := compute(ctx)
	if err != nil {
		return val, err
	}

	data, err := json.Marshal(val)
	if err != nil {
		slog.Warn("value not cacheable", slog.String("key", k), slog.String("error", err.Error()))
		return val, nil
	}
	if err := s.store.Set(ctx, k, data, region.TTL()); err != nil {
		s.metrics.RecordCacheError(string(region))
		slog.Warn("failed to populate cache", slog.String("key", k), slog.String("error", err.Error()))
	}
	return val, nil
}

// Evict removes every entry of region.
func (s *CacheService) Evict(ctx context.Context, region Region) error {
	n, err := s.store.DeletePrefix(ctx, regionPrefix(region))
	if err != nil {
		return fmt.Errorf("failed to evict cache region %s: %w", region, err)
	}
	s.metrics.RecordCacheEviction(string(region))
	slog.Debug("cache region evicted", slog.String("region", string(region)), slog.Int("entries", n))
	return nil
}

// EvictKey removes a single entry of region.
func (s *CacheService) EvictKey(ctx context.Context, region Region, key string) error {
	if err := s.store.Delete(ctx, storeKey(region, key)); err != nil {
		return fmt.Errorf("failed to evict %s from cache region %s: %w", key, region, err)
	}
	s.metrics.RecordCacheEviction(string(region))
	return nil
}

// EvictRegions removes every entry of each region, continuing past failures.
func (s *CacheService) EvictRegions(ctx context.Context, regions ...Region) error {
	var errs []error
	for _, r := range regions {
		if err := s.Evict(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EvictAll removes every entry of every region.
func (s *CacheService) EvictAll(ctx context.Context) error {
	return s.EvictRegions(ctx, allRegions...)
}

func (s *CacheService) ClearProductCaches(ctx context.Context) error {
	return s.EvictRegions(ctx, productRegions...)
}

func (s *CacheService) ClearCategoryCaches(ctx context.Context) error {
	return s.Evict(ctx, RegionCategories)
}

func (s *CacheService) ClearCartCaches(ctx context.Context) error {
	return s.Evict(ctx, RegionCarts)
}

func (s *CacheService) ClearOrderCaches(ctx context.Context) error {
	return s.Evict(ctx, RegionOrders)
}

func (s *CacheService) ClearUserCaches(ctx context.Context) error {
	return s.EvictRegions(ctx, RegionUserDetails, RegionSellers)
}

// EvictUserDetails drops the cached identity of username.
func (s *CacheService) EvictUserDetails(ctx context.Context, username string) error {
	return s.EvictKey(ctx, RegionUserDetails, username)
}

// Invalidate evicts regions after a write. The write has already been committed, so a store
// failure is logged rather than returned; affected entries then age out with their TTL.
func (s *CacheService) Invalidate(ctx context.Context, regions ...Region) {
	if err := s.EvictRegions(ctx, regions...); err != nil {
		slog.Error("cache invalidation failed", slog.String("error", err.Error()))
	}
}

// InvalidateKey is Invalidate for a single entry.
func (s *CacheService) InvalidateKey(ctx context.Context, region Region, key string) {
	if err := s.EvictKey(ctx, region, key); err != nil {
		slog.Error("cache invalidation failed", slog.String("error", err.Error()))
	}
}
