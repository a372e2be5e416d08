package handlers

import (
	"context"
	"log/slog"

	"ecom/internal/middleware"
	"ecom/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CacheHandler exposes manual cache eviction to administrators.
type CacheHandler struct {
	cache *services.CacheService
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(cache *services.CacheService) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// RegisterRoutes registers the cache administration routes. Named groups are registered
// before the generic region routes so they take precedence.
func (h *CacheHandler) RegisterRoutes(router fiber.Router) {
	cacheRoutes := router.Group("/cache")
	cacheRoutes.Delete("/all", h.clear("All caches", h.cache.EvictAll))
	cacheRoutes.Delete("/products", h.clear("Product caches", h.cache.ClearProductCaches))
	cacheRoutes.Delete("/categories", h.clear("Category caches", h.cache.ClearCategoryCaches))
	cacheRoutes.Delete("/carts", h.clear("Cart caches", h.cache.ClearCartCaches))
	cacheRoutes.Delete("/orders", h.clear("Order caches", h.cache.ClearOrderCaches))
	cacheRoutes.Delete("/users", h.clear("User caches", h.cache.ClearUserCaches))
	cacheRoutes.Delete("/:region", h.HandleEvictRegion)
	cacheRoutes.Delete("/:region/:key", h.HandleEvictKey)
}

func (h *CacheHandler) clear(what string, evict func(context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := evict(c.UserContext()); err != nil {
			return h.failed(c, err)
		}
		slog.Info("cache cleared", slog.String("scope", c.Path()))
		return c.SendString(what + " cleared successfully")
	}
}

// HandleEvictRegion evicts every entry of one region.
func (h *CacheHandler) HandleEvictRegion(c *fiber.Ctx) error {
	region, err := services.ParseRegion(c.Params("region"))
	if err != nil {
		return middleware.WriteError(c, fiber.StatusNotFound, err.Error())
	}
	if err := h.cache.Evict(c.UserContext(), region); err != nil {
		return h.failed(c, err)
	}
	return c.SendString("Cache '" + string(region) + "' cleared successfully")
}

// HandleEvictKey evicts a single entry of one region.
func (h *CacheHandler) HandleEvictKey(c *fiber.Ctx) error {
	region, err := services.ParseRegion(c.Params("region"))
	if err != nil {
		return middleware.WriteError(c, fiber.StatusNotFound, err.Error())
	}
	key := c.Params("key")
	if err := h.cache.EvictKey(c.UserContext(), region, key); err != nil {
		return h.failed(c, err)
	}
	return c.SendString("Cache entry '" + key + "' evicted from '" + string(region) + "'")
}

func (h *CacheHandler) failed(c *fiber.Ctx, err error) error {
	slog.Error("cache eviction failed", slog.String("path", c.Path()), slog.String("error", err.Error()))
	return middleware.WriteError(c, fiber.StatusInternalServerError, "Error clearing caches")
}
