package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Shared secret for the external cron caller of the unlock endpoint.
	CronSecret string

	// Unlock cadence in minutes, clamped to [1, 720].
	UnlockIntervalMinutes int

	// Storage
	StorageType  string // "local" or "gcs"
	StoragePath  string
	GCSProjectID string
	GCSBucket    string
	GCSKeyFile   string

	// Bootstrap admin account (created at startup if set)
	AdminUsername string
	AdminPassword string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		Env:                   getEnvOrDefault("ENV", "development"),
		DatabaseURL:           mustGetEnv("DATABASE_URL"),
		RedisURL:              mustGetEnv("REDIS_URL"),
		JWTSecret:             mustGetEnv("JWT_SECRET"),
		CronSecret:            getEnvOrDefault("CRON_SECRET", ""),
		UnlockIntervalMinutes: clampIntervalMinutes(getEnvAsIntOrDefault("UNLOCK_INTERVAL_MINUTES", 30)),
		StorageType:           getEnvOrDefault("STORAGE_TYPE", "local"),
		StoragePath:           getEnvOrDefault("STORAGE_PATH", "./uploads"),
		GCSProjectID:          getEnvOrDefault("GCS_PROJECT_ID", ""),
		GCSBucket:             getEnvOrDefault("GCS_BUCKET", "questions"),
		GCSKeyFile:            getEnvOrDefault("GCS_KEY_FILE", ""),
		AdminUsername:         getEnvOrDefault("ADMIN_USERNAME", ""),
		AdminPassword:         getEnvOrDefault("ADMIN_PASSWORD", ""),
		FrontendURL:           getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// clampIntervalMinutes keeps the unlock cadence within [1, 720] minutes,
// falling back to 30 for non-positive values.
func clampIntervalMinutes(n int) int {
	if n <= 0 {
		return 30
	}
	if n > 720 {
		return 720
	}
	return n
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
