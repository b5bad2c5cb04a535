// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/event-booking/internal/auth"
	"github.com/Shivanand-hulikatti/event-booking/internal/clock"
	"github.com/Shivanand-hulikatti/event-booking/internal/config"
	"github.com/Shivanand-hulikatti/event-booking/internal/database"
	"github.com/Shivanand-hulikatti/event-booking/internal/handler"
	"github.com/Shivanand-hulikatti/event-booking/internal/logger"
	"github.com/Shivanand-hulikatti/event-booking/internal/metrics"
	"github.com/Shivanand-hulikatti/event-booking/internal/repository"
	"github.com/Shivanand-hulikatti/event-booking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// ── 1. Metrics ───────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ── 2. Storage ───────────────────────────────────────────────────────
	stores, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	// ── 3. Wire up layers ────────────────────────────────────────────────
	deps := service.Deps{Clock: clock.NewSystem(), Logger: log, Metrics: m}
	router := handler.NewRouter(handler.RouterConfig{
		Countries: service.NewCountryService(stores, deps),
		Attendees: service.NewAttendeeService(stores, deps),
		Events:    service.NewEventService(stores, deps),
		Bookings:  service.NewBookingService(stores, deps),
		Tokens:    auth.NewTokens(cfg.JWTSecret, nil),
		Logger:    log,
		Metrics:   m,
		Gatherer:  reg,
	})

	// ── 4. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr, "storage", cfg.Storage, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// openStores connects the configured backend and returns a cleanup func.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (service.Stores, func(), error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		return service.MemoryStores(repository.NewMemory()), func() {}, nil
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return service.Stores{}, nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool, log); err != nil {
		pool.Close()
		return service.Stores{}, nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("connected to PostgreSQL")

	db := repository.NewPostgres(pool)
	redisClient, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		pool.Close()
		return service.Stores{}, nil, fmt.Errorf("redis: %w", err)
	}
	if redisClient == nil {
		return service.PostgresStores(db, nil), pool.Close, nil
	}

	log.Info("country cache enabled", "ttl", cfg.CountryCacheTTL)
	countries := repository.NewCachedCountries(db.Countries(), redisClient, cfg.CountryCacheTTL, log)
	cleanup := func() {
		_ = redisClient.Close()
		pool.Close()
	}
	return service.PostgresStores(db, countries), cleanup, nil
}
