// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the binary needs to wire up the core.
type Config struct {
	DBPath        string // SQLite database file, created on first open
	MarketAPIKey  string // Alpha Vantage key; empty or "your_api_key_here" selects the mock provider
	MarketBaseURL string
	LogLevel      string // debug, info, warn, error
	LogFormat     string // text or json
	LogDir        string // when set, logs also go to a daily-rotated file here
	AIProvider    string // openai, anthropic or gemini
	AIAPIKey      string
	AIModel       string
	AIBaseURL     string // optional override for OpenAI-compatible gateways
	NewsLimit     int
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbPath := getEnv("STOCKFOLIO_DB_PATH", "")
	if dbPath == "" {
		dataDir := getEnv("STOCKFOLIO_DATA_DIR", ".")
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve data directory: %w", err)
		}
		if err := os.MkdirAll(absDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dbPath = filepath.Join(absDir, "stockfolio.db")
	}

	// ALPHA_VANTAGE_API_KEY is the name the provider documents; the
	// STOCKFOLIO_ prefixed variant wins when both are set.
	marketKey := getEnv("STOCKFOLIO_MARKET_API_KEY", "")
	if marketKey == "" {
		marketKey = getEnv("ALPHA_VANTAGE_API_KEY", "")
	}

	cfg := &Config{
		DBPath:        dbPath,
		MarketAPIKey:  marketKey,
		MarketBaseURL: getEnv("STOCKFOLIO_MARKET_BASE_URL", ""),
		LogLevel:      getEnv("STOCKFOLIO_LOG_LEVEL", "info"),
		LogFormat:     getEnv("STOCKFOLIO_LOG_FORMAT", "text"),
		LogDir:        getEnv("STOCKFOLIO_LOG_DIR", ""),
		AIProvider:    getEnv("STOCKFOLIO_AI_PROVIDER", ""),
		AIAPIKey:      getEnv("STOCKFOLIO_AI_API_KEY", ""),
		AIModel:       getEnv("STOCKFOLIO_AI_MODEL", ""),
		AIBaseURL:     getEnv("STOCKFOLIO_AI_BASE_URL", ""),
		NewsLimit:     getEnvAsInt("STOCKFOLIO_NEWS_LIMIT", 10),
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
