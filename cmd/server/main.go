package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	packagingapp "github.com/goodsdist/backend/internal/application/packaging"
	"github.com/goodsdist/backend/internal/domain/packaging"
	"github.com/goodsdist/backend/internal/domain/shared"
	"github.com/goodsdist/backend/internal/infrastructure/cache"
	"github.com/goodsdist/backend/internal/infrastructure/config"
	"github.com/goodsdist/backend/internal/infrastructure/event"
	"github.com/goodsdist/backend/internal/infrastructure/logger"
	"github.com/goodsdist/backend/internal/infrastructure/persistence"
	"github.com/goodsdist/backend/internal/infrastructure/supplier"
	"github.com/goodsdist/backend/internal/infrastructure/telemetry"
	"github.com/goodsdist/backend/internal/interfaces/http/handler"
	"github.com/goodsdist/backend/internal/interfaces/http/middleware"
	"github.com/goodsdist/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log, cfg.App)
	defer func() { _ = log.Sync() }()

	log.Info("Starting packaging service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	ctx := context.Background()

	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	packagingMetrics, err := telemetry.NewPackagingMetrics(meterProvider.Meter("packaging"))
	if err != nil {
		log.Fatal("Failed to register packaging metrics", zap.Error(err))
	}

	replayStore, err := cache.NewReplayStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create replay store", zap.Error(err))
	}

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewPackagingAuditHandler(log))
	eventBus.Subscribe(event.NewReplenishmentMetricsHandler(packagingMetrics))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	serviceConfig, err := newServiceConfig(cfg.Packaging)
	if err != nil {
		log.Fatal("Invalid packaging configuration", zap.Error(err))
	}

	packagingRepo := persistence.NewGormProductPackagingRepository(db.DB)
	packagingService := packagingapp.NewPackagingService(packagingRepo, supplier.NewParser(), serviceConfig, log)
	packagingService.SetEventPublisher(eventBus)
	packagingService.SetReplayStore(replayStore)
	packagingService.SetMetrics(packagingMetrics)

	engine := router.NewEngine(router.Handlers{
		Packaging: handler.NewPackagingHandler(packagingService),
		Supplier:  handler.NewSupplierItemHandler(packagingService),
		System:    handler.NewSystemHandler(cfg.App.Name, version, db),
	}, router.EngineOptions{
		HTTP:          cfg.HTTP,
		Logger:        log,
		MeterProvider: meterProvider,
		Tenant:        middleware.DefaultTenantConfig(),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := replayStore.Close(); err != nil {
		log.Error("Error closing replay store", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing metrics", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newServiceConfig maps the packaging section of the config onto the
// service's pricing and stock-entry rules.
func newServiceConfig(cfg config.PackagingConfig) (packagingapp.ServiceConfig, error) {
	sc := packagingapp.DefaultServiceConfig()

	if cfg.MinimumPriceFactor > 0 {
		sc.MinimumPriceFactor = decimal.NewFromFloat(cfg.MinimumPriceFactor)
	}
	if cfg.StockEntryPolicy != "" {
		policy, err := packaging.ParseStockEntryPolicy(cfg.StockEntryPolicy)
		if err != nil {
			return sc, err
		}
		sc.StockEntryPolicy = policy
	}
	sc.DefaultAutoCalculate = cfg.DefaultAutoCalculate
	sc.Replay = shared.ReplayConfig{
		TTL:     cfg.ReplayTTL,
		Enabled: cfg.ReplayEnabled,
	}
	if sc.Replay.TTL <= 0 {
		sc.Replay.TTL = shared.DefaultReplayConfig().TTL
	}
	return sc, nil
}
