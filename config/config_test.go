package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_URL", "postgres://localhost:5432/banking")
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 15, cfg.AccessExpiryMin)
	assert.Equal(t, 10080, cfg.RefreshExpiryMin)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, 15, cfg.LockoutWindowMin)
	assert.Equal(t, 5, cfg.MaxActiveSessions)
	assert.Equal(t, 3, cfg.TransferRetries)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "30")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "10")

	cfg := Load()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 30, cfg.AccessExpiryMin)
	assert.Equal(t, 10, cfg.LoginMaxAttempts)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRY", "not-a-number")

	cfg := Load()

	assert.Equal(t, 15, cfg.AccessExpiryMin)
}
