package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// validIntervals are the kline intervals Binance publishes monthly archives for.
var validIntervals = map[string]bool{
	"1s": true, "1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1mo": true,
}

// Config holds all application configuration.
type Config struct {
	// Collection targets
	Symbols  []string // e.g. ["BTCUSDT", "ETHUSDT"]
	Interval string   // e.g. "4h"

	// Filesystem
	OutputDir  string // merged dataset files land here
	ScratchDir string // per-symbol temp dirs are created under this

	// Remote archive source
	VisionBaseURL string
	HTTPTimeout   time.Duration
	MaxRetries    int           // fetch attempts per archive
	RetryDelay    time.Duration // fixed delay between attempts
	RequestPause  time.Duration // pause after every request

	// Current-month tail fill via the spot REST API
	TailFill  bool
	APIKey    string
	SecretKey string

	// Run history database; empty disables recording
	DBPath string

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	for _, s := range strings.Split(getEnv("SYMBOLS", "BTCUSDT,ETHUSDT"), ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			cfg.Symbols = append(cfg.Symbols, s)
		}
	}
	if len(cfg.Symbols) == 0 {
		errs = append(errs, "SYMBOLS must name at least one symbol")
	}

	cfg.Interval = getEnv("INTERVAL", "4h")
	if !validIntervals[cfg.Interval] {
		errs = append(errs, fmt.Sprintf("INTERVAL %q is not a published kline interval", cfg.Interval))
	}

	cfg.OutputDir = getEnv("OUTPUT_DIR", "./data")
	cfg.ScratchDir = getEnv("SCRATCH_DIR", ".")
	cfg.VisionBaseURL = getEnv("VISION_BASE_URL", "")

	httpTimeoutSeconds := getEnvAsInt("HTTP_TIMEOUT_SECONDS", 60)
	if httpTimeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(httpTimeoutSeconds) * time.Second

	cfg.MaxRetries = getEnvAsInt("MAX_RETRIES", 3)
	if cfg.MaxRetries <= 0 {
		errs = append(errs, "MAX_RETRIES must be positive")
	}

	retryDelaySeconds := getEnvAsInt("RETRY_DELAY_SECONDS", 2)
	if retryDelaySeconds <= 0 {
		errs = append(errs, "RETRY_DELAY_SECONDS must be positive")
	}
	cfg.RetryDelay = time.Duration(retryDelaySeconds) * time.Second

	requestPauseMs := getEnvAsInt("REQUEST_PAUSE_MS", 100)
	if requestPauseMs < 0 {
		errs = append(errs, "REQUEST_PAUSE_MS cannot be negative")
	}
	cfg.RequestPause = time.Duration(requestPauseMs) * time.Millisecond

	cfg.TailFill = getEnvAsBool("TAIL_FILL", false)
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")

	cfg.DBPath = getEnv("DB_PATH", "./data/collector.db")
	cfg.LogLevel = getEnv("LOG_LEVEL", "INFO")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
