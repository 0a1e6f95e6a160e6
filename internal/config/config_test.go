package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 168*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxFileBytes)
	assert.Equal(t, 3, cfg.Upload.MaxFiles)
	assert.False(t, cfg.Demo.Enabled)
	assert.Empty(t, cfg.Telemetry.Endpoint)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://eterna.example, https://admin.eterna.example ,")
	t.Setenv("AUTH_DEMO_MODE", "true")
	t.Setenv("AUTH_DEMO_EMAIL", "  Demo@Eterna.COM ")
	t.Setenv("JWT_EXPIRY_HOURS", "2")

	cfg := Load()

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://eterna.example", "https://admin.eterna.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Demo.Enabled)
	assert.Equal(t, "demo@eterna.com", cfg.Demo.Email)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiry)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a,,b "))
}
