// Package common provides shared utilities for Carteira
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Carteira
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Feeds       FeedsConfig   `toml:"feeds"`
	Clients     ClientsConfig `toml:"clients"`
	Cache       CacheConfig   `toml:"cache"`
	Radar       RadarConfig   `toml:"radar"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// FeedsConfig holds the two position feed sources.
// SheetURL is required: without it there is nothing to value.
type FeedsConfig struct {
	SheetURL  string        `toml:"sheet_url"`
	ManualURL string        `toml:"manual_url"`
	Timeout   string        `toml:"timeout"`
	Columns   ColumnsConfig `toml:"columns"`
}

// ColumnsConfig maps the fixed zero-based column indices of the sheet feed.
// The indices are a deployment-time setting, not part of the data.
type ColumnsConfig struct {
	Ticker    int `toml:"ticker"`
	Quantity  int `toml:"quantity"`
	Price     int `toml:"price"`
	AvgCost   int `toml:"avg_cost"`
	BookValue int `toml:"book_value"`
	Yield     int `toml:"yield_12m"`
}

// GetTimeout parses and returns the feed fetch timeout
func (c *FeedsConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Investidor10 Investidor10Config `toml:"investidor10"`
	EODHD        EODHDConfig        `toml:"eodhd"`
	Gemini       GeminiConfig       `toml:"gemini"`
}

// Investidor10Config holds the quote-page scrape client configuration
type Investidor10Config struct {
	BaseURL    string `toml:"base_url"`
	RateLimit  int    `toml:"rate_limit"` // requests per second
	Timeout    string `toml:"timeout"`
	MaxRetries int    `toml:"max_retries"`
}

// GetTimeout parses and returns the timeout duration
func (c *Investidor10Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// EODHDConfig holds the market-data fallback API configuration
type EODHDConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	ExchangeSuffix string `toml:"exchange_suffix"` // appended to tickers, e.g. "SA" for B3
	RateLimit      int    `toml:"rate_limit"`
	Timeout        string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey     string `toml:"api_key"`
	Model      string `toml:"model"`
	MaxRetries int    `toml:"max_retries"`
}

// CacheConfig holds price cache and refresh scheduler configuration
type CacheConfig struct {
	TTL             string `toml:"ttl"`
	RefreshSchedule string `toml:"refresh_schedule"` // cron spec, e.g. "@every 6h"
}

// GetTTL parses and returns the cache entry time-to-live
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// RadarConfig holds classifier thresholds. Defaults are documented in
// NewDefaultConfig; all values are deployment-tunable rather than baked in.
type RadarConfig struct {
	OpportunityRatioLow  float64 `toml:"opportunity_ratio_low"`  // valuation ratio band lower bound
	OpportunityRatioHigh float64 `toml:"opportunity_ratio_high"` // valuation ratio band upper bound
	OpportunityYieldMin  float64 `toml:"opportunity_yield_min"`  // yield floor (fraction)
	AlertRatioMax        float64 `toml:"alert_ratio_max"`        // "expensive" above this
	LowYieldFactor       float64 `toml:"low_yield_factor"`       // "low yield" below factor × mean yield
	ValueTrapRatioMax    float64 `toml:"value_trap_ratio_max"`   // "value trap" ratio bound
	ValueTrapYieldMax    float64 `toml:"value_trap_yield_max"`   // "value trap" yield bound
	ShortlistSize        int     `toml:"shortlist_size"`
}

// StorageConfig holds the snapshot/report file store location.
type StorageConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Feeds: FeedsConfig{
			Timeout: "15s",
			Columns: ColumnsConfig{
				Ticker:    0,
				Quantity:  5,
				Price:     8,
				AvgCost:   9,
				BookValue: 11,
				Yield:     17,
			},
		},
		Clients: ClientsConfig{
			Investidor10: Investidor10Config{
				BaseURL:    "https://investidor10.com.br",
				RateLimit:  1,
				Timeout:    "15s",
				MaxRetries: 3,
			},
			EODHD: EODHDConfig{
				BaseURL:        "https://eodhd.com/api",
				ExchangeSuffix: "SA",
				RateLimit:      10,
				Timeout:        "10s",
			},
			Gemini: GeminiConfig{
				Model:      "gemini-2.5-flash-lite",
				MaxRetries: 2,
			},
		},
		Cache: CacheConfig{
			TTL:             "6h",
			RefreshSchedule: "@every 6h",
		},
		Radar: RadarConfig{
			OpportunityRatioLow:  0.80,
			OpportunityRatioHigh: 0.90,
			OpportunityYieldMin:  0.10,
			AlertRatioMax:        1.10,
			LowYieldFactor:       0.85,
			ValueTrapRatioMax:    0.70,
			ValueTrapYieldMax:    0.08,
			ShortlistSize:        4,
		},
		Storage: StorageConfig{
			Path: "data",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// Validate reports fatal configuration errors. A missing sheet feed URL is the
// only halting category: everything downstream degrades, this does not.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Feeds.SheetURL) == "" {
		return fmt.Errorf("feeds.sheet_url is required (or set SHEET_URL_FIIS)")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CARTEIRA_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("CARTEIRA_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("CARTEIRA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("CARTEIRA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("CARTEIRA_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	// Feed URLs keep their historical env names alongside the CARTEIRA_ prefix
	for _, name := range []string{"CARTEIRA_SHEET_URL", "SHEET_URL_FIIS"} {
		if v := os.Getenv(name); v != "" {
			config.Feeds.SheetURL = v
			break
		}
	}
	for _, name := range []string{"CARTEIRA_MANUAL_URL", "SHEET_URL_MANUAL"} {
		if v := os.Getenv(name); v != "" {
			config.Feeds.ManualURL = v
			break
		}
	}

	if v := os.Getenv("EODHD_API_KEY"); v != "" {
		config.Clients.EODHD.APIKey = v
	}
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.Gemini.APIKey = v
			break
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
