package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecom/internal/config"
	"ecom/internal/database"
	"ecom/internal/logger"
	"ecom/internal/server"
	"ecom/internal/services"
	"ecom/pkg/cache"
	"ecom/pkg/rabbitmq"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

const (
	seedAdminUsername = "admin"
	seedAdminEmail    = "admin@ecom.local"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// --- Configuration ---
	config.LoadDotEnv()
	v := viper.New()
	config.SetDefaults(v)
	v.AutomaticEnv()

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger.SetupDefault(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	// --- Cache ---
	store := newCacheStore(ctx, cfg)
	defer store.Close()

	// --- Events ---
	var events services.EventPublisher
	mqClient, err := connectEvents(cfg)
	if err != nil {
		slog.Warn("order events disabled", slog.String("error", err.Error()))
	}
	if mqClient != nil {
		defer mqClient.Close()
		events = mqClient
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.New(server.Deps{
		Config:    cfg,
		DB:        db,
		Store:     store,
		Registry:  registry,
		Events:    events,
		AccessLog: true,
	})

	if cfg.SeedAdminPassword != "" {
		if err := srv.Auth.EnsureAdmin(ctx, seedAdminUsername, seedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return fmt.Errorf("failed to seed administrator: %w", err)
		}
	}

	if mqClient != nil {
		err := mqClient.Subscribe(services.EventsExchange, "order.#", func(msg amqp.Delivery) error {
			return srv.Orders.HandleOrderEvent(ctx, msg.RoutingKey, msg.Body)
		})
		if err != nil {
			slog.Warn("order event consumer not started", slog.String("error", err.Error()))
		}
	}

	// --- HTTP Server ---
	listenErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", slog.String("addr", cfg.AppPort))
		listenErr <- srv.App.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownDone := make(chan error, 1)
	go func() { shutdownDone <- srv.Shutdown() }()
	select {
	case err := <-shutdownDone:
		if err != nil {
			return fmt.Errorf("error during shutdown: %w", err)
		}
	case <-time.After(10 * time.Second):
		return errors.New("shutdown timed out")
	}
	slog.Info("server gracefully stopped")
	return nil
}

// newCacheStore returns the store selected by CACHE_DRIVER. An unreachable Redis is kept:
// reads go straight to the database until it comes back.
func newCacheStore(ctx context.Context, cfg *config.Config) cache.Store {
	if cfg.CacheDriver == "memory" {
		slog.Info("using in-process cache")
		return cache.NewMemoryStore()
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	store, err := cache.Connect(pingCtx, &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		slog.Warn("redis unavailable, caching degraded", slog.String("error", err.Error()))
	}
	return store
}

// connectEvents dials RabbitMQ when RABBITMQ_URL is set. Both results are nil when it is not.
func connectEvents(cfg *config.Config) (*rabbitmq.Client, error) {
	if cfg.RabbitMQURL == "" {
		return nil, nil
	}
	return rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: services.EventsExchange})
}
