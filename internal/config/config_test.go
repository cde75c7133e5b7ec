package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"API_KEY", "ALPHA_VANTAGE_API_KEY", "ALPHAVANTAGE_BASE_URL", "SYMBOL", "POLL_INTERVAL",
	"HTTPS_PROXY", "SQLITE_PATH", "HTTP_ADDR", "LOG_LEVEL", "CONFIG_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ProviderAlphaVantage, cfg.DataSource.Provider)
	assert.Equal(t, "https://www.alphavantage.co", cfg.DataSource.BaseURL)
	assert.Equal(t, "DIA", cfg.DataSource.Symbol)
	assert.Equal(t, 15*time.Second, cfg.Polling.Interval.Duration)
	assert.Equal(t, 60*time.Second, cfg.Polling.Cooldown.Duration)
	assert.Equal(t, 10*time.Second, cfg.Polling.RequestTimeout.Duration)
	assert.Equal(t, 100, cfg.Polling.BufferCapacity)
	assert.Equal(t, "America/New_York", cfg.Market.Timezone)
	assert.Equal(t, 9, cfg.Market.OpenHour)
	assert.Equal(t, 16, cfg.Market.CloseHour)
	assert.Equal(t, 30*time.Minute, cfg.Market.StaleGrace.Duration)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Database.SQLitePath)

	assert.ErrorContains(t, cfg.Validate(), "API key is required")
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
data_source:
  provider: AlphaVantage
  api_key: from-file
  symbol: spy
polling:
  interval: 30s
  cooldown: 2m
  buffer_capacity: 50
market:
  stale_grace: 45m
server:
  addr: ":9090"
log_level: debug
`)
	t.Setenv("API_KEY", "from-env")
	t.Setenv("POLL_INTERVAL", "20s")
	t.Setenv("SQLITE_PATH", "/tmp/journal.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderAlphaVantage, cfg.DataSource.Provider)
	assert.Equal(t, "from-env", cfg.DataSource.APIKey)
	assert.Equal(t, "spy", cfg.DataSource.Symbol)
	assert.Equal(t, 20*time.Second, cfg.Polling.Interval.Duration)
	assert.Equal(t, 2*time.Minute, cfg.Polling.Cooldown.Duration)
	assert.Equal(t, 50, cfg.Polling.BufferCapacity)
	assert.Equal(t, 45*time.Minute, cfg.Market.StaleGrace.Duration)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/tmp/journal.db", cfg.Database.SQLitePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ZeroStaleGraceIsKept(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "market:\n  stale_grace: 0s\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Zero(t, cfg.Market.StaleGrace.Duration)
	assert.Equal(t, "America/New_York", cfg.Market.Timezone)
}

func TestLoad_MarketSectionWithoutStaleGrace(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "market:\n  timezone: America/Chicago\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Market.StaleGrace.Duration)
	assert.Equal(t, "America/Chicago", cfg.Market.Timezone)
}

func TestLoad_AlternateKeyVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALPHA_VANTAGE_API_KEY", "alt")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "alt", cfg.DataSource.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "polling:\n  interval: soon\n"))
	assert.ErrorContains(t, err, "parse config")

	t.Setenv("POLL_INTERVAL", "often")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "POLL_INTERVAL")
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		cfg.DataSource.APIKey = "k"
		return cfg
	}

	mock := base()
	mock.DataSource.APIKey = ""
	mock.DataSource.Provider = ProviderMock
	assert.NoError(t, mock.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "yahoo" }},
		{"bad symbol", func(c *Config) { c.DataSource.Symbol = "no spaces" }},
		{"fast interval", func(c *Config) { c.Polling.Interval.Duration = 100 * time.Millisecond }},
		{"zero capacity", func(c *Config) { c.Polling.BufferCapacity = -1 }},
		{"inverted hours", func(c *Config) { c.Market.OpenHour, c.Market.CloseHour = 16, 9 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, DefaultPath, Path())
	t.Setenv("CONFIG_PATH", "/etc/sentinel.yaml")
	assert.Equal(t, "/etc/sentinel.yaml", Path())
}
