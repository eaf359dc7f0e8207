package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_STORE", "")
	t.Setenv("SESSION_TOKEN_TTL", "")
	t.Setenv("BACKEND_BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.Session.Store)
	assert.Equal(t, time.Hour, cfg.Session.TokenTTL)
	assert.Equal(t, "http://localhost:3000", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("SESSION_TOKEN_TTL", "30m")
	t.Setenv("BACKEND_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Session.Store)
	assert.Equal(t, 30*time.Minute, cfg.Session.TokenTTL)
	assert.Equal(t, 15, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("REDIS_DB", "0")
	t.Setenv("SESSION_STORE", "cookie")
	_, err = Load()
	assert.Error(t, err)
}
