package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/api"
	"github.com/kelvintan1101/erp/internal/config"
	"github.com/kelvintan1101/erp/internal/lazada"
	"github.com/kelvintan1101/erp/internal/repository/postgres"
	"github.com/kelvintan1101/erp/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	logger.Info("Starting Lazada ERP server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)

	// Initialize database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories and the sync subsystem
	repos := postgres.NewRepositories(db, logger)
	tokens := lazada.NewTokenManager(cfg.Lazada, repos.Credential, logger)
	client := lazada.NewClient(cfg.Lazada, tokens, logger)
	syncSvc := service.NewSyncService(repos, client, logger)

	// Initialize router
	router := api.NewRouter(cfg, repos, syncSvc, tokens, client, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Background inventory sync: runs on startup and every interval when
	// LAZADA_SYNC_INTERVAL is set
	syncCtx, cancelSync := context.WithCancel(context.Background())
	defer cancelSync()
	if cfg.Lazada.SyncInterval > 0 {
		go service.RunSyncLoop(syncCtx, syncSvc, cfg.Lazada.SyncInterval, logger)
		logger.Info("Inventory sync loop started", zap.Duration("interval", cfg.Lazada.SyncInterval))
	}

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancelSync()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
