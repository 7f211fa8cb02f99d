package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"edhaus/internal/config"
	"edhaus/internal/database"
	"edhaus/internal/logging"
	"edhaus/internal/metrics"
	"edhaus/internal/notifier"
	"edhaus/internal/observability"
	"edhaus/internal/repositories"
	"edhaus/internal/server"
	"edhaus/internal/services"
	kafkax "edhaus/pkg/kafka"
	"edhaus/pkg/rabbitmq"
	"edhaus/pkg/redisx"

	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, config.ServiceName)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTELEndpoint, config.ServiceName, version)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	// --- Database ---
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	store := repositories.NewStore(db, logger)

	// --- Services ---
	m := metrics.New()
	authService := services.NewAuthService(store.Users, cfg.JWTSecret, cfg.JWTTTL, logger)
	if cfg.Admin.Username != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	}

	publisher, err := newPublisher(cfg.Notifier, logger)
	if err != nil {
		return err
	}
	dispatcher := notifier.NewDispatcher(publisher, notifier.DispatcherOptions{
		Buffer:     cfg.Notifier.Buffer,
		MaxRetries: uint64(cfg.Notifier.MaxRetries),
	}, logger, m)

	locker, closeLocker := newLocker(ctx, cfg, logger)

	app := server.New(server.Deps{
		DB:           db,
		Auth:         authService,
		Products:     services.NewProductService(store.Products, store.Categories, store.Ledger, logger),
		Categories:   services.NewCategoryService(store.Categories),
		Carts:        services.NewCartService(store, locker, logger),
		Checkout:     services.NewCheckoutService(store, locker, dispatcher, m, logger),
		Orders:       services.NewOrderService(store, dispatcher, m, logger),
		Metrics:      m,
		Logger:       logger,
		RateLimitMax: cfg.RateLimitMax,
		AccessLog:    true,
	})

	// --- Start HTTP Server ---
	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("version", version))
		listenErr <- app.Listen(cfg.AppPort)
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-listenErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var errs []error
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
	}
	// Events of requests that completed are still queued.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("notifier shutdown: %w", err))
	}
	closeLocker()
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
	}
	if len(errs) > 0 {
		logger.Error("unclean shutdown", zap.Error(errors.Join(errs...)))
	}
	logger.Info("server gracefully stopped")
	return runErr
}

func newPublisher(cfg config.NotifierConfig, logger *zap.Logger) (notifier.Publisher, error) {
	switch cfg.Backend {
	case config.NotifierRabbitMQ:
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		logger.Info("publishing order events to rabbitmq", zap.String("exchange", cfg.RabbitMQExchange))
		return notifier.NewRabbitMQPublisher(client), nil
	case config.NotifierKafka:
		client := kafkax.NewClient(strings.Join(cfg.KafkaBrokers, ","))
		logger.Info("publishing order events to kafka", zap.Strings("brokers", client.Brokers), zap.String("topic", cfg.KafkaTopic))
		return notifier.NewKafkaPublisher(client, cfg.KafkaTopic), nil
	default:
		return notifier.NewLogPublisher(logger), nil
	}
}

// newLocker uses redis when configured so that several instances serialise
// checkouts of the same user; otherwise an in-process lock is enough.
func newLocker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.Locker, func()) {
	if cfg.RedisAddr == "" {
		return services.NewLocalLocker(), func() {}
	}
	rdb := redisx.New(cfg.RedisAddr)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, cart locks will retry on use", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return redisx.NewLocker(rdb, cfg.CartLockTTL, logger), func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
