package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend.local/")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://backend.local", cfg.Backend.BaseURL)
	assert.Equal(t, "adminToken", cfg.Backend.CookieName)
	assert.Equal(t, 5*time.Second, cfg.Backend.RequestTimeout)
	assert.Equal(t, 100, cfg.Notify.QueueSize)
	assert.Equal(t, 30*time.Minute, cfg.Views.IdleTTL)
	assert.Equal(t, 5*time.Minute, cfg.Views.SweepInterval)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

func TestLoadRejectsRelativeBackendURL(t *testing.T) {
	t.Setenv("BACKEND_URL", "backend.local")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_URL")
}

func TestLoadFallsBackOnBadNumbers(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend.local")
	t.Setenv("NOTIFY_QUEUE_SIZE", "-3")
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Notify.QueueSize)
	assert.Equal(t, 30*time.Second, cfg.Backend.RequestTimeout)
}

func TestAllowedOriginsExplicitFrontend(t *testing.T) {
	cfg := &Config{FrontendURL: "https://admin.example.com"}
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://admin.example.com"}, cfg.AllowedOrigins())
}

func TestLoadRejectsNegativeIdleTTL(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend.local")
	t.Setenv("VIEW_IDLE_TTL", "-1m")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VIEW_IDLE_TTL")
}
