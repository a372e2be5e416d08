// Package server assembles the HTTP application from its repositories, services and handlers.
package server

import (
	"time"

	"ecom/internal/config"
	"ecom/internal/handlers"
	"ecom/internal/metrics"
	"ecom/internal/middleware"
	"ecom/internal/repositories"
	"ecom/internal/services"
	"ecom/pkg/cache"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Deps are the external resources the application runs on.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Store    cache.Store
	Registry *prometheus.Registry
	// Events may be nil, which disables order event publishing.
	Events services.EventPublisher
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

// Server is the assembled application.
type Server struct {
	App    *fiber.App
	Auth   *services.AuthService
	Orders *services.OrderService
	Cache  *services.CacheService

	limiter *middleware.RateLimiter
}

// New wires repositories, services, middleware and routes.
func New(d Deps) *Server {
	collector := metrics.NewCollector(d.Registry)
	cacheService := services.NewCacheService(d.Store, collector)

	// Repositories
	userRepo := repositories.NewGORMUserRepository(d.DB)
	addressRepo := repositories.NewGORMAddressRepository(d.DB)
	categoryRepo := repositories.NewGORMCategoryRepository(d.DB)
	productRepo := repositories.NewGORMProductRepository(d.DB)
	cartRepo := repositories.NewGORMCartRepository(d.DB)
	orderRepo := repositories.NewGORMOrderRepository(d.DB)

	// Services
	tokenService := services.NewTokenService(d.Config.JWTSecret, d.Config.JWTExpiration, collector)
	userDetails := services.NewUserDetailsService(userRepo, cacheService)
	authService := services.NewAuthService(userRepo, tokenService, cacheService)
	categoryService := services.NewCategoryService(categoryRepo, cacheService)
	productService := services.NewProductService(productRepo, categoryRepo, cartRepo, cacheService)
	cartService := services.NewCartService(cartRepo, productRepo, cacheService)
	addressService := services.NewAddressService(addressRepo)
	orderService := services.NewOrderService(orderRepo, cartRepo, addressService, cacheService, d.Events)

	limiter := middleware.NewRateLimiter(d.Config.SignInRatePerMinute, 5*time.Minute)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, handlers.CookieConfig{
		Name:   d.Config.JWTCookieName,
		Secure: d.Config.CookieSecure,
		MaxAge: d.Config.JWTExpiration,
	}, limiter.Handler())
	catalogHandler := handlers.NewCatalogHandler(categoryService, productService)
	cartHandler := handlers.NewCartHandler(cartService)
	addressHandler := handlers.NewAddressHandler(addressService)
	orderHandler := handlers.NewOrderHandler(orderService)
	cacheHandler := handlers.NewCacheHandler(cacheService)
	systemHandler := handlers.NewSystemHandler(d.DB, d.Store)

	app := fiber.New(fiber.Config{
		AppName:       "ecom",
		CaseSensitive: true,
		ErrorHandler:  middleware.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	if d.AccessLog {
		app.Use(logger.New())
	}
	app.Use(middleware.CORS(d.Config.AllowedOrigins()))
	app.Use(middleware.Authenticate(tokenService, userDetails, d.Config.JWTCookieName))
	app.Use(middleware.Authorize(middleware.DefaultPolicy(), collector))

	// Routes
	api := app.Group("/api")
	app.Get("/metrics", metrics.Handler(d.Registry))
	systemHandler.RegisterRoutes(app, api)
	authHandler.RegisterRoutes(api)
	catalogHandler.RegisterRoutes(api)
	cartHandler.RegisterRoutes(api)
	addressHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)
	cacheHandler.RegisterRoutes(api)

	return &Server{
		App:     app,
		Auth:    authService,
		Orders:  orderService,
		Cache:   cacheService,
		limiter: limiter,
	}
}

// Shutdown stops the HTTP server and background workers.
func (s *Server) Shutdown() error {
	s.limiter.Stop()
	return s.App.Shutdown()
}
