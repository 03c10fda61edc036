package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "HOST", "MAX_CONNECTIONS", "ALLOWED_ORIGINS",
	"LOG_LEVEL", "LOG_DEV",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RATE_LIMIT_ENABLED",
	"WS_READ_LIMIT", "WS_FRAMES_PER_SECOND", "WS_FRAME_BURST", "WS_WRITE_TIMEOUT", "WS_PING_INTERVAL", "WS_SEND_BUFFER",
	"BUS_TIMEOUT",
	"SQLITE_PATH", "REMOTE_STORAGE_URL", "REMOTE_STORAGE_TIMEOUT", "REMOTE_STORAGE_RETRIES", "REMOTE_STORAGE_RPS",
	"TOKEN_TTL", "BCRYPT_COST",
	"PROFILE_PATH", "TERMINAL_HOSTNAME",
}

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestDefaultMatchesTagDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Second, cfg.Bus.RequestTimeout)
	assert.Equal(t, int64(65536), cfg.WebSocket.ReadLimit)
	assert.Equal(t, "nnoitra.db", cfg.Storage.SQLitePath)
	assert.Empty(t, cfg.Storage.RemoteURL)
	assert.Equal(t, 24*time.Hour, cfg.Accounts.TokenTTL)
	assert.Empty(t, cfg.Shell.ProfilePath)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	for k, v := range map[string]string{
		"PORT":                   "9000",
		"ALLOWED_ORIGINS":        "https://a.example,https://b.example",
		"LOG_LEVEL":              "debug",
		"LOG_DEV":                "true",
		"RATE_LIMIT_ENABLED":     "false",
		"WS_PING_INTERVAL":       "5s",
		"BUS_TIMEOUT":            "250ms",
		"SQLITE_PATH":            "",
		"REMOTE_STORAGE_URL":     "https://storage.example.com",
		"REMOTE_STORAGE_RPS":     "2.5",
		"TOKEN_TTL":              "1h",
		"PROFILE_PATH":           "/etc/nnoitra/profile.yaml",
		"TERMINAL_HOSTNAME":      "box",
		"REMOTE_STORAGE_RETRIES": "0",
	} {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Bus.RequestTimeout)
	assert.Empty(t, cfg.Storage.SQLitePath, "an empty path keeps LOCAL storage in memory")
	assert.Equal(t, "https://storage.example.com", cfg.Storage.RemoteURL)
	assert.Equal(t, 2.5, cfg.Storage.RemoteRateLimit)
	assert.Equal(t, 0, cfg.Storage.RemoteRetries)
	assert.Equal(t, time.Hour, cfg.Accounts.TokenTTL)
	assert.Equal(t, "/etc/nnoitra/profile.yaml", cfg.Shell.ProfilePath)
	assert.Equal(t, "box", cfg.Shell.Hostname)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"BUS_TIMEOUT", "soon"},
		{"WS_READ_LIMIT", "big"},
		{"RATE_LIMIT_ENABLED", "maybe"},
		{"REMOTE_STORAGE_RPS", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to load config")

			// LoadOrDefault falls back instead of failing.
			assert.Equal(t, Default(), LoadOrDefault())
		})
	}
}
