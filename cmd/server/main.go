package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	httpAdapter "github.com/bazaarworks/marketledger/internal/adapter/http"
	"github.com/bazaarworks/marketledger/internal/adapter/http/handler"
	postgresRepo "github.com/bazaarworks/marketledger/internal/adapter/repository/postgres"
	redisRepo "github.com/bazaarworks/marketledger/internal/adapter/repository/redis"
	"github.com/bazaarworks/marketledger/internal/infrastructure/config"
	"github.com/bazaarworks/marketledger/internal/infrastructure/logger"
	"github.com/bazaarworks/marketledger/internal/infrastructure/metrics"
	"github.com/bazaarworks/marketledger/internal/infrastructure/postgres"
	"github.com/bazaarworks/marketledger/internal/infrastructure/redis"
	"github.com/bazaarworks/marketledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger

	feeRate, err := decimal.NewFromString(cfg.PlatformFeeRate)
	if err != nil {
		log.Fatal().Err(err).Str("rate", cfg.PlatformFeeRate).Msg("invalid platform fee rate")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	entryRepo := postgresRepo.NewLedgerEntryRepository(pool)
	settlementRepo := postgresRepo.NewSettlementRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	freezeStore := redisRepo.NewFreezeStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(appLogger)

	// Initialize metrics
	engineMetrics := metrics.New()

	// Initialize use cases
	ledgerService := usecase.NewLedgerService(txManager, entryRepo, idGen, engineMetrics, usecase.LedgerServiceConfig{
		HoldWindow:      cfg.HoldWindow,
		PlatformFeeRate: feeRate,
	})
	settlementEngine := usecase.NewSettlementEngine(
		txManager,
		entryRepo,
		settlementRepo,
		freezeStore,
		retrier,
		idGen,
		engineMetrics,
		appLogger,
	)

	// Initialize handlers
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	settlementHandler := handler.NewSettlementHandler(settlementEngine)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		LedgerHandler:     ledgerHandler,
		SettlementHandler: settlementHandler,
		HealthHandler:     healthHandler,
		IdempotencyStore:  idempotencyStore,
		Logger:            appLogger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
