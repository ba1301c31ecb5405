package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "net/http/pprof"

	"github.com/hmpharma/pharmacy-api/config"
	"github.com/hmpharma/pharmacy-api/handlers"
	"github.com/hmpharma/pharmacy-api/health"
	"github.com/hmpharma/pharmacy-api/logging"
	"github.com/hmpharma/pharmacy-api/scheduler"
	"github.com/hmpharma/pharmacy-api/server"
	"github.com/hmpharma/pharmacy-api/store"
	"github.com/hmpharma/pharmacy-api/validation"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	cleanup, err := logging.InitLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		logging.Error("Failed to initialize logging", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logging.Error("Failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error("Database close error", "error", err)
		}
	}()

	registry := store.NewRegistry(db)
	validate := validation.New()

	resources := []server.RouteRegistrar{
		handlers.NewResource(registry.Medicines, validate),
		handlers.NewResource(registry.MedicineBatches, validate),
		handlers.NewResource(registry.Customers, validate),
		handlers.NewResource(registry.Suppliers, validate),
		handlers.NewResource(registry.Purchases, validate),
		handlers.NewResource(registry.PurchaseItems, validate),
		handlers.NewResource(registry.Sales, validate),
		handlers.NewResource(registry.SaleItems, validate),
		handlers.NewResource(registry.Prescriptions, validate),
		handlers.NewResource(registry.Payments, validate),
		handlers.NewResource(registry.SupplierPayments, validate),
	}

	expiryScan := scheduler.NewScheduler(registry.MedicineBatches, cfg.ExpiryWarnDays)
	if err := expiryScan.Start(); err != nil {
		logging.Error("Failed to start expiry scan scheduler", "error", err)
		os.Exit(1)
	}
	defer expiryScan.Stop()

	checker := health.NewChecker(db, registry, expiryScan)

	srv := server.NewServer(cfg, resources, checker.Handler())

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}
