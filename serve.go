package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/product-catalog-api/internal/app/service"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/persistence"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/telemetry"
)

func runServe(ctx context.Context, configPath string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// Initialize OpenTelemetry
	telem, err := telemetry.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	// Ensure telemetry is shutdown on exit
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = telem.Shutdown(shutdownCtx)
	}()

	// Get tracer, meter, and logger instances
	tracer := telem.TracerProvider.Tracer("products-api")
	meter := telem.MeterProvider.Meter("products-api")
	logger := telem.Logger

	logger.Info("Starting Products API")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := persistence.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if _, err := persistence.Migrate(ctx, db, dialect, logger); err != nil {
			return err
		}
	}

	uowFactory, err := persistence.NewUnitOfWorkFactory(db, dialect,
		persistence.WithTracer(tracer),
		persistence.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	productService := service.NewProductService(uowFactory, tracer, meter, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	server := http.NewServer(&cfg.Server, productHandler, db, telem.MeterProvider, logger)

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", slog.String("error", err.Error()))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func runMigrate(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	level, _ := cfg.Log.SlogLevel()
	logger := telemetry.NewLogger(os.Stdout, &cfg.OTLP, level)

	db, dialect, err := persistence.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := persistence.Migrate(ctx, db, dialect, logger)
	if err != nil {
		return err
	}

	logger.Info("Migrations complete", slog.Int("applied", len(applied)))
	return nil
}
