package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/wanted/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	require.NoError(t, Load(""))
	cfg := Get()

	assert.Equal(t, "0.0.0.0:4000", cfg.Server.Addr())
	assert.Equal(t, "https://api.fbi.gov", cfg.Upstream.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 16, cfg.Cache.Shards)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Contains(t, cfg.CORS.AllowedOrigins, "http://localhost:5173")
	assert.Equal(t, 100, cfg.RateLimit.Requests)

	policies := cfg.Cache.Policies()
	require.Len(t, policies, 4)
	byCategory := make(map[domain.Category]time.Duration)
	for _, p := range policies {
		byCategory[p.Category] = p.TTL
	}
	assert.Equal(t, 5*time.Minute, byCategory[domain.CategoryList])
	assert.Equal(t, 30*time.Minute, byCategory[domain.CategoryDetail])
	assert.Equal(t, time.Hour, byCategory[domain.CategoryFilter])
	assert.Equal(t, 10*time.Minute, byCategory[domain.CategorySearch])
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
cache:
  shards: 4
  warmup_on_start: true
  categories:
    list:
      ttl: 1m
    trending:
      ttl: 2m
      check_period: 10s
rate_limit:
  requests: 5
  window: 10s
`)

	require.NoError(t, Load(path))
	cfg := Get()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Cache.Shards)
	assert.True(t, cfg.Cache.WarmupOnStart)
	assert.Equal(t, time.Minute, cfg.Cache.Categories["list"].TTL)
	assert.Equal(t, 60*time.Second, cfg.Cache.Categories["list"].CheckPeriod)
	assert.Equal(t, 2*time.Minute, cfg.Cache.Categories["trending"].TTL)
	assert.Len(t, cfg.Cache.Policies(), 5)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Setenv("PORT", "5050")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("FRONTEND_URL", "https://wanted.example.com")

	require.NoError(t, Load(""))
	cfg := Get()

	assert.Equal(t, 5050, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Contains(t, cfg.CORS.AllowedOrigins, "https://wanted.example.com")
}

func TestLoadPrefixedEnv(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "6060")
	t.Setenv("APP_CACHE_CATEGORIES_DETAIL_TTL", "45m")

	require.NoError(t, Load(""))
	cfg := Get()

	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, 45*time.Minute, cfg.Cache.Categories["detail"].TTL)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"no shards", "cache:\n  shards: 0\n"},
		{"zero ttl", "cache:\n  categories:\n    list:\n      ttl: 0s\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"empty secret", "auth:\n  secret: \"\"\n"},
		{"no rate", "rate_limit:\n  requests: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestReload(t *testing.T) {
	require.NoError(t, Load(writeConfig(t, "server:\n  port: 7001\n")))
	assert.Equal(t, 7001, Get().Server.Port)

	require.NoError(t, Reload(writeConfig(t, "server:\n  port: 7002\n")))
	assert.Equal(t, 7002, Get().Server.Port)
}
