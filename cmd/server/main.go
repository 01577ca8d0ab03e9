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

	"github.com/gymflow/backend/internal/config"
	"github.com/gymflow/backend/internal/logger"
	"github.com/gymflow/backend/internal/metrics"
	"github.com/gymflow/backend/internal/repository"
	"github.com/gymflow/backend/internal/repository/memstore"
	"github.com/gymflow/backend/internal/router"
	"github.com/gymflow/backend/internal/service"
	"github.com/gymflow/backend/internal/ws"
	"github.com/gymflow/backend/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Config error: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("❌ Server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	feed := ws.NewOrderFeed(cfg.CORSOrigins)

	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.UserTokenTTL, cfg.AdminTokenTTL, time.Now)
	if err := authSvc.SeedRoot(ctx, cfg.RootEmail, cfg.RootPassword); err != nil {
		return fmt.Errorf("root seed: %w", err)
	}
	orderSvc := service.NewOrderService(store, feed, time.Now)
	subSvc := service.NewSubscriptionService(store, time.Now)
	statsSvc := service.NewStatsService(store, time.Now)

	proofs, err := storage.NewProofStorage(cfg.UploadDir, cfg.UploadBaseURL, cfg.UploadMaxSize)
	if err != nil {
		return fmt.Errorf("upload storage: %w", err)
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	service.NewMonitorService(store, time.Now, time.Minute).Start(ctx)

	handler := router.New(ctx, router.Deps{
		Health:        store,
		Auth:          authSvc,
		Orders:        orderSvc,
		Subscriptions: subSvc,
		Stats:         statsSvc,
		Proofs:        proofs,
		Feed:          feed,
		Metrics:       promhttp.Handler(),
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookie:  cfg.IsProduction(),
		MetricsUser:   cfg.MetricsUser,
		MetricsPass:   cfg.MetricsPass,
	})

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// WriteTimeout must be 0 for WebSocket connections (they are long-lived)
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("🚀 GymFlow backend listening", "addr", "http://"+addr, "env", cfg.Environment)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore connects to PostgreSQL when DATABASE_URL is set and falls back
// to the in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("⚠️  DATABASE_URL not set, using in-memory store (data is lost on restart)")
		return memstore.New(), func() {}, nil
	}

	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if err := repository.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	slog.Info("✅ Database connected & migrated")
	return repository.NewPgStore(db), db.Close, nil
}
