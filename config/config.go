package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DBURL         string
	RedisAddr     string
	RedisPassword string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessExpiryMin    int
	RefreshExpiryMin   int
	MaxActiveSessions  int

	LoginMaxAttempts  int
	LockoutWindowMin  int
	AuditQueueSize    int
	TransferRetries   int
}

func Load() *Config {
	// Missing .env is fine; real environments inject variables directly.
	_ = godotenv.Load()

	return &Config{
		Env:                getEnv("ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DBURL:              mustGetEnv("DB_URL"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		AccessTokenSecret:  mustGetEnv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: mustGetEnv("REFRESH_TOKEN_SECRET"),
		AccessExpiryMin:    getEnvAsInt("ACCESS_TOKEN_EXPIRY", 15),
		RefreshExpiryMin:   getEnvAsInt("REFRESH_TOKEN_EXPIRY", 10080),
		MaxActiveSessions:  getEnvAsInt("MAX_ACTIVE_SESSIONS", 5),
		LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
		LockoutWindowMin:   getEnvAsInt("LOCKOUT_WINDOW_MINUTES", 15),
		AuditQueueSize:     getEnvAsInt("AUDIT_QUEUE_SIZE", 256),
		TransferRetries:    getEnvAsInt("TRANSFER_MAX_RETRIES", 3),
	}
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
