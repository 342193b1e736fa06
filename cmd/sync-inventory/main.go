package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/config"
	"github.com/kelvintan1101/erp/internal/lazada"
	"github.com/kelvintan1101/erp/internal/repository/postgres"
	"github.com/kelvintan1101/erp/internal/service"
)

// Runs one full inventory reconciliation from the command line and prints
// the per-item report.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	tokens := lazada.NewTokenManager(cfg.Lazada, repos.Credential, logger)
	client := lazada.NewClient(cfg.Lazada, tokens, logger)
	syncSvc := service.NewSyncService(repos, client, logger)

	report, err := syncSvc.SyncAll(context.Background())
	if err != nil {
		logger.Fatal("Inventory sync failed", zap.Error(err))
	}

	fmt.Printf("Synced %d of %d items\n", report.Successes, report.Total)
	for _, r := range report.Results {
		if r.Status == "success" {
			fmt.Printf("  ✅ %s\n", r.SKU)
		} else {
			fmt.Printf("  ❌ %s: %s\n", r.SKU, r.Detail)
		}
	}

	if report.Successes < report.Total {
		os.Exit(1)
	}
}
