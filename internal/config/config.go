package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"StockSentinel/internal/buffer"
	"StockSentinel/internal/marketclock"
	"StockSentinel/internal/model"
	"StockSentinel/internal/poller"
)

// DefaultPath is read when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Provider names accepted in data_source.provider.
const (
	ProviderAlphaVantage = "alphavantage"
	ProviderMock         = "mock"
)

// Duration reads YAML strings such as "15s" or "1m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Symbol   string `yaml:"symbol"`
	} `yaml:"data_source"`
	Polling struct {
		Interval       Duration `yaml:"interval"`
		Cooldown       Duration `yaml:"cooldown"`
		RequestTimeout Duration `yaml:"request_timeout"`
		BufferCapacity int      `yaml:"buffer_capacity"`
	} `yaml:"polling"`
	Market struct {
		Timezone   string   `yaml:"timezone"`
		OpenHour   int      `yaml:"open_hour"`
		CloseHour  int      `yaml:"close_hour"`
		StaleGrace Duration `yaml:"stale_grace"`
	} `yaml:"market"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level"`
}

// Path returns the config file location, honouring CONFIG_PATH.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Seeded before decoding so an explicit 0 (strict day match) survives.
	cfg.Market.StaleGrace.Duration = marketclock.DefaultStaleGrace

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		cfg.Polling.Interval.Duration = d
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = ProviderAlphaVantage
	}
	cfg.DataSource.Provider = strings.ToLower(cfg.DataSource.Provider)
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "https://www.alphavantage.co"
	}
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = model.DefaultSymbol
	}
	if cfg.Polling.Interval.Duration == 0 {
		cfg.Polling.Interval.Duration = 15 * time.Second
	}
	if cfg.Polling.Cooldown.Duration == 0 {
		cfg.Polling.Cooldown.Duration = poller.DefaultCooldown
	}
	if cfg.Polling.RequestTimeout.Duration == 0 {
		cfg.Polling.RequestTimeout.Duration = poller.DefaultFetchTimeout
	}
	if cfg.Polling.BufferCapacity == 0 {
		cfg.Polling.BufferCapacity = buffer.DefaultCapacity
	}
	if cfg.Market.Timezone == "" {
		cfg.Market.Timezone = marketclock.DefaultTimezone
	}
	if cfg.Market.OpenHour == 0 && cfg.Market.CloseHour == 0 {
		cfg.Market.OpenHour = marketclock.DefaultOpenHour
		cfg.Market.CloseHour = marketclock.DefaultCloseHour
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderAlphaVantage:
		if c.DataSource.APIKey == "" {
			return errors.New("API key is required: set API_KEY or data_source.api_key")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if _, err := poller.NormalizeSymbol(c.DataSource.Symbol); err != nil {
		return fmt.Errorf("data_source.symbol: %w", err)
	}
	if c.Polling.Interval.Duration < time.Second {
		return errors.New("polling.interval must be at least 1s")
	}
	if c.Polling.Cooldown.Duration <= 0 {
		return errors.New("polling.cooldown must be positive")
	}
	if c.Polling.RequestTimeout.Duration <= 0 {
		return errors.New("polling.request_timeout must be positive")
	}
	if c.Polling.BufferCapacity < 1 {
		return errors.New("polling.buffer_capacity must be positive")
	}
	if c.Market.OpenHour < 0 || c.Market.CloseHour > 24 || c.Market.OpenHour >= c.Market.CloseHour {
		return fmt.Errorf("market hours [%d,%d) are invalid", c.Market.OpenHour, c.Market.CloseHour)
	}
	if c.Market.StaleGrace.Duration < 0 {
		return errors.New("market.stale_grace must not be negative")
	}
	return nil
}
