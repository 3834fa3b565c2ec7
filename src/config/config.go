package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	MigrationsPath string

	MaxUploadSizeBytes int64

	// Tourism Dirham Fee policy. The per-night rates and the night cap are
	// municipal policy and may change, so they are configurable.
	TDFStandardRate  decimal.Decimal
	TDFApartmentRate decimal.Decimal
	TDFNightCap      int

	// Divisor that converts a taxed amount into the pre-tax AMOUNT
	// (10% service charge plus municipality/tourism taxes => 1.225).
	TaxFactor decimal.Decimal

	SummaryCacheTTL time.Duration

	RunRetentionDays int
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./entered_on_audit.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),

		MaxUploadSizeBytes: maxUploadSizeBytes,

		TDFStandardRate:  getEnvAsDecimal("TDF_STANDARD_RATE", decimal.NewFromInt(20)),
		TDFApartmentRate: getEnvAsDecimal("TDF_APARTMENT_RATE", decimal.NewFromInt(40)),
		TDFNightCap:      getEnvAsInt("TDF_NIGHT_CAP", 30),

		TaxFactor: getEnvAsDecimal("TAX_FACTOR", decimal.RequireFromString("1.225")),

		SummaryCacheTTL: getEnvAsDuration("SUMMARY_CACHE_TTL", 15*time.Minute),

		RunRetentionDays: getEnvAsInt("RUN_RETENTION_DAYS", 30),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsDecimal retrieves an environment variable as a decimal or returns a fallback.
func getEnvAsDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	if value, err := decimal.NewFromString(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid decimal value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
