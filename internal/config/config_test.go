package config_test

import (
	"testing"
	"time"

	"github.com/dom/pixelcart/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 3, cfg.StoreRetryAttempts)
	assert.Equal(t, 15*time.Minute, cfg.SignalTTL)
	assert.Equal(t, time.Minute, cfg.SignalSweepInterval)
	assert.Equal(t, 24, cfg.JWTExpirationHours)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, logger.Info, cfg.GormLogLevel())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SIGNAL_TTL", "30s")
	t.Setenv("STORE_RETRY_ATTEMPTS", "0")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Second, cfg.SignalTTL)
	assert.Equal(t, 1, cfg.StoreRetryAttempts)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, logger.Warn, cfg.GormLogLevel())
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SIGNAL_TTL", "soon")

	_, err := config.Load()
	assert.Error(t, err)
}
