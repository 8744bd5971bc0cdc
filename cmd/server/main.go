// Package main is the entry point for the brigade API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"brigade/internal/domain/alerts"
	"brigade/internal/domain/ingredient"
	"brigade/internal/domain/kitchen"
	"brigade/internal/domain/ledger"
	"brigade/internal/domain/orders"
	"brigade/internal/domain/recipe"
	"brigade/internal/domain/reports"
	v1 "brigade/internal/infrastructure/http/v1"
	"brigade/internal/infrastructure/http/v1/middleware"
	"brigade/internal/infrastructure/metrics"
	"brigade/internal/infrastructure/numerator"
	"brigade/internal/infrastructure/storage/postgres"
	"brigade/internal/infrastructure/ws"
	"brigade/internal/notify"
	"brigade/pkg/logger"
)

const version = "1.0.0"

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting brigade server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)

	// --- Repositories ---
	ingredientRepo := postgres.NewIngredientRepo(txm)
	recipeRepo := postgres.NewRecipeRepo(txm)
	orderRepo := postgres.NewOrderRepo(txm)
	ticketRepo := postgres.NewTicketRepo(txm)
	ledgerStore := postgres.NewLedgerStore(txm)
	numbers := numerator.New(pool.Pool)

	// --- Notifications ---
	hub := ws.NewHub()
	dispatcher := notify.NewDispatcher(hub, notify.LogNotifier{})

	// --- Alerts ---
	alertEngine, err := alerts.NewEngine(dispatcher, alerts.DefaultRules())
	if err != nil {
		log.Fatalw("failed to compile alert rules", "error", err)
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	allocMetrics := metrics.NewAllocation(registry)

	// --- Domain services ---
	allocator := ledger.NewAllocator(ledgerStore, ingredientRepo, txm, ledger.Config{
		LockTimeout: getEnvDuration("LOCK_TIMEOUT", ledger.DefaultLockTimeout),
		Events:      dispatcher,
		Alerts:      alertEngine,
		Metrics:     allocMetrics,
	})
	ingredientService := ingredient.NewService(ingredientRepo)
	orderService := orders.NewService(orderRepo, txm, numbers)
	resolver := recipe.NewResolver(recipeRepo, ingredientRepo)
	kitchenService := kitchen.NewService(ticketRepo, orderService, resolver, allocator, numbers, dispatcher)
	reportService := reports.NewService(allocator)

	// --- Background jobs ---
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go runExpirySweep(sweepCtx, allocator, getEnvDuration("EXPIRY_SWEEP_INTERVAL", time.Hour))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		JWTValidator: middleware.NewJWTValidator(mustEnv("JWT_SECRET")),
		Ingredients:  ingredientService,
		Recipes:      recipeRepo,
		Orders:       orderService,
		Kitchen:      kitchenService,
		Allocator:    allocator,
		Reports:      reportService,
		Hub:          hub,
		Pool:         pool.Pool,
		Prometheus:   registry,
		Version:      version,
	})

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// runExpirySweep retires out-of-date batches periodically.
func runExpirySweep(ctx context.Context, allocator *ledger.Allocator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := allocator.ExpireBatches(ctx, time.Now().UTC()); err != nil {
				logger.Error(ctx, "expiry sweep failed", "error", err)
			}
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
