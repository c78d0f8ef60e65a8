package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autodealer/inventory/internal/api"
	"autodealer/inventory/internal/config"
	"autodealer/inventory/internal/imagekey"
	"autodealer/inventory/internal/logging"
	"autodealer/inventory/internal/metrics"
	"autodealer/inventory/internal/repository/mongo"
	"autodealer/inventory/internal/service"
	"autodealer/inventory/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// @title Dealership Inventory API
// @version 1.0
// @description Car and spare-part listings with staged photo uploads.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Log, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("starting inventory server", "address", cfg.Server.Address, "environment", cfg.Server.Environment)

	ctx := context.Background()

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(ctx, cfg.Database.URI)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, appDB); err != nil {
			logger.Error("index creation failed", "error", err)
			return
		}
		logger.Info("database indexes ensured")
	}()

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.MustNewMetrics(registry)

	// --- Initialize Storage ---
	s3Storage, err := storage.NewS3Storage(ctx, cfg.S3, logger)
	if err != nil {
		return err
	}
	fileStorage := storage.NewRetryingStorage(s3Storage, cfg.Images.RetryMaxElapsed, nil, logger)
	resolver := imagekey.NewResolver(cfg.S3.BucketName, cfg.S3.Region)

	// --- Initialize Repositories ---
	adminRepo := mongo.NewMongoAdminRepository(appDB)
	carRepo := mongo.NewMongoCarRepository(appDB)
	partRepo := mongo.NewMongoPartRepository(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(adminRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	imageService := service.NewImageService(fileStorage, resolver, cfg.Images, appMetrics, logger)

	sweeper, err := service.NewSweeper(fileStorage, cfg.Sweep, appMetrics, logger)
	if err != nil {
		return err
	}
	sweeper.Start()

	// --- Initialize Gin Engine ---
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(cfg.Server, api.Services{
		Auth:     authService,
		Admins:   service.NewAdminService(adminRepo, carRepo),
		Cars:     service.NewCarService(carRepo, logger),
		Parts:    service.NewPartService(partRepo, logger),
		Images:   imageService,
		Ping:     func(ctx context.Context) error { return mongo.Ping(ctx, dbClient) },
		Metrics:  appMetrics,
		Gatherer: registry,
	}, logger)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	sweeper.Stop(ctxShutdown)
	if err := server.Shutdown(ctxShutdown); err != nil {
		return err
	}

	logger.Info("server exiting")
	return nil
}
