package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/config"
	"github.com/kelvintan1101/erp/internal/lazada"
	"github.com/kelvintan1101/erp/internal/repository/postgres"
)

// Lists products on the Lazada side. Optional first argument is the filter
// (all, live, inactive, deleted, image-missing, pending, rejected, sold-out).
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

	filter := "all"
	if len(os.Args) > 1 {
		filter = os.Args[1]
	}

	result, err := client.GetProducts(context.Background(), filter)
	if err != nil {
		logger.Fatal("Failed to fetch products", zap.Error(err))
	}

	if !result.Succeeded() {
		fmt.Fprintf(os.Stderr, "Lazada returned code %s: %s\n", result.Code, result.Message)
		os.Exit(1)
	}

	pretty, err := json.MarshalIndent(json.RawMessage(result.Data), "", "  ")
	if err != nil {
		logger.Fatal("Failed to format response", zap.Error(err))
	}
	fmt.Println(string(pretty))
}
