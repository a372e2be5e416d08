package handlers

import (
	"context"
	"sort"
	"time"

	"ecom/pkg/cache"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RouteDoc describes one registered route.
type RouteDoc struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// SystemHandler serves health checks and the route listing.
type SystemHandler struct {
	db    *gorm.DB
	store cache.Store
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(db *gorm.DB, store cache.Store) *SystemHandler {
	return &SystemHandler{db: db, store: store}
}

// RegisterRoutes registers /health on app and /docs on api.
func (h *SystemHandler) RegisterRoutes(app fiber.Router, api fiber.Router) {
	app.Get("/health", h.HandleHealth)
	api.Get("/docs", h.HandleDocs)
}

// HandleHealth reports the reachability of the database and the cache. The service stays
// healthy without its cache.
func (h *SystemHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, overall, database := fiber.StatusOK, "ok", "up"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status, overall, database = fiber.StatusServiceUnavailable, "degraded", "down"
	}
	cacheState := "up"
	if err := h.store.Ping(ctx); err != nil {
		cacheState = "down"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"database": database,
		"cache":    cacheState,
	})
}

// HandleDocs lists the registered API routes.
func (h *SystemHandler) HandleDocs(c *fiber.Ctx) error {
	var docs []RouteDoc
	for _, r := range c.App().GetRoutes(true) {
		if r.Method == fiber.MethodHead || r.Method == fiber.MethodOptions {
			continue
		}
		docs = append(docs, RouteDoc{Method: r.Method, Path: r.Path})
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Path != docs[j].Path {
			return docs[i].Path < docs[j].Path
		}
		return docs[i].Method < docs[j].Method
	})
	return c.JSON(fiber.Map{
		"routes": docs,
	})
}
