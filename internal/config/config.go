package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Lazada      LazadaConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LazadaConfig holds the marketplace app credentials and endpoints
type LazadaConfig struct {
	AppKey      string
	AppSecret   string
	APIBaseURL  string // e.g. https://api.lazada.com.my/rest
	AuthBaseURL string // e.g. https://auth.lazada.com/rest
	AuthURL     string // authorization page, e.g. https://auth.lazada.com/oauth/authorize
	CallbackURL string
	SignMethod  string // "sha256" or "md5" for general API calls
	// SyncInterval enables the background inventory sync loop when > 0.
	SyncInterval time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LAZADA_SIGN_METHOD", "sha256")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	syncInterval, err := parseSyncInterval(getEnvOrViper("LAZADA_SYNC_INTERVAL", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "lazadaerp"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Lazada: LazadaConfig{
			AppKey:       strings.TrimSpace(getEnvOrViper("LAZADA_APP_KEY", "")),
			AppSecret:    strings.TrimSpace(getEnvOrViper("LAZADA_APP_SECRET", "")),
			APIBaseURL:   strings.TrimSpace(getEnvOrViper("LAZADA_API_URL", "")),
			AuthBaseURL:  strings.TrimSpace(getEnvOrViper("LAZADA_AUTH_API_URL", "https://auth.lazada.com/rest")),
			AuthURL:      strings.TrimSpace(getEnvOrViper("LAZADA_AUTH_URL", "https://auth.lazada.com/oauth/authorize")),
			CallbackURL:  strings.TrimSpace(getEnvOrViper("LAZADA_CALLBACK_URL", "")),
			SignMethod:   strings.ToLower(getEnvOrViper("LAZADA_SIGN_METHOD", "sha256")),
			SyncInterval: syncInterval,
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Lazada.AppKey == "" {
		return nil, fmt.Errorf("LAZADA_APP_KEY is required")
	}
	if cfg.Lazada.AppSecret == "" {
		return nil, fmt.Errorf("LAZADA_APP_SECRET is required")
	}
	if cfg.Lazada.APIBaseURL == "" {
		return nil, fmt.Errorf("LAZADA_API_URL is required")
	}
	if cfg.Lazada.CallbackURL == "" {
		return nil, fmt.Errorf("LAZADA_CALLBACK_URL is required")
	}
	if cfg.Lazada.SignMethod != "sha256" && cfg.Lazada.SignMethod != "md5" {
		return nil, fmt.Errorf("LAZADA_SIGN_METHOD must be sha256 or md5, got %q", cfg.Lazada.SignMethod)
	}

	return cfg, nil
}

func parseSyncInterval(raw string) (time.Duration, error) {
	if raw == "" || raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("LAZADA_SYNC_INTERVAL must be a duration like 10m: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("LAZADA_SYNC_INTERVAL must not be negative")
	}
	return d, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
