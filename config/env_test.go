package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("DAY_CLOSE_TIMEOUT", "")
	t.Setenv("REDIS_DB", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "60-M", cfg.HTTP.RateLimit)
	assert.Equal(t, 15*time.Second, cfg.DayClose.Timeout)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, devJWTSecret, cfg.Auth.JWTSecret)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DAY_CLOSE_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("OVERDUE_CACHE_TTL", "not-a-duration")
	t.Setenv("APP_ENV", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.DayClose.Timeout)
	assert.Equal(t, 4, cfg.Redis.DB)
	assert.Equal(t, 5*time.Minute, cfg.Billing.OverdueCacheTTL)
}

func TestLoadConfig_JWTSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)

	t.Run("missing secret is rejected", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("explicit secret is kept", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cr3t-from-vault")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "s3cr3t-from-vault", cfg.Auth.JWTSecret)
	})
}
