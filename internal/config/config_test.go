package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENVIRONMENT", "STORAGE", "DATABASE_URL", "REDIS_URL", "JWT_SECRET", "COUNTRY_CACHE_TTL", "SHUTDOWN_TIMEOUT", "DB_HOST"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 10*time.Minute, cfg.CountryCacheTTL)
	assert.Contains(t, cfg.DatabaseURL, "host=localhost")
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE", StorageMemory)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("COUNTRY_CACHE_TTL", "30")
	t.Setenv("SHUTDOWN_TIMEOUT", "2s")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.CountryCacheTTL)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("STORAGE", "sqlite")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORAGE", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("SHUTDOWN_TIMEOUT", "")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.Error(t, err)
}
