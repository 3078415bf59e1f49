package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the shared configuration of the scanner and the query service
type Config struct {
	Amadeus AmadeusConfig `toml:"amadeus"`
	Scan    ScanConfig    `toml:"scan"`
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Metrics MetricsConfig `toml:"metrics"`
	Logging LoggingConfig `toml:"logging"`
}

// AmadeusConfig configures the upstream flight-offer provider
type AmadeusConfig struct {
	Env                  string            `toml:"env"`
	BaseURLs             map[string]string `toml:"base_urls"`
	ClientID             string            `toml:"-"`
	ClientSecret         string            `toml:"-"`
	CarrierCode          string            `toml:"carrier_code"`
	MaxResults           int               `toml:"max_results"`
	AuthTimeoutSeconds   int               `toml:"auth_timeout_seconds"`
	SearchTimeoutSeconds int               `toml:"search_timeout_seconds"`
	RateLimitPauseMillis int               `toml:"rate_limit_pause_ms"`
	CourtesyDelayMillis  int               `toml:"courtesy_delay_ms"`
	BookingURLTemplate   string            `toml:"booking_url_template"`
}

// ScanConfig holds the scanner's default search parameters
type ScanConfig struct {
	Origin      string `toml:"origin"`
	Destination string `toml:"destination"`
	Weeks       int    `toml:"weeks"`
	Adults      int    `toml:"adults"`
	Currency    string `toml:"currency"`
	Outfile     string `toml:"outfile"`
	NonStop     bool   `toml:"nonstop"`
}

// ServerConfig configures the query service
type ServerConfig struct {
	Addr                string   `toml:"addr"`
	CSVPath             string   `toml:"csv_path"`
	CORSAllowedOrigins  []string `toml:"cors_allowed_origins"`
	ReadTimeoutSeconds  int      `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `toml:"write_timeout_seconds"`
}

// StorageConfig configures the scan journal. An empty path disables it.
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"`
}

// MetricsConfig configures prometheus collectors
type MetricsConfig struct {
	Namespace    string `toml:"namespace"`
	TextfilePath string `toml:"textfile_path"`
}

// LoggingConfig mirrors logger.Config
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Amadeus: AmadeusConfig{
			Env: "test",
			BaseURLs: map[string]string{
				"test": "https://test.api.amadeus.com",
				"prod": "https://api.amadeus.com",
			},
			CarrierCode:          "UA",
			MaxResults:           250,
			AuthTimeoutSeconds:   20,
			SearchTimeoutSeconds: 30,
			RateLimitPauseMillis: 2000,
			CourtesyDelayMillis:  250,
			BookingURLTemplate:   "https://www.united.com/en/us/fsr/choose-flights?f={origin}&t={destination}&d={depart}&r={return}&tqp=R",
		},
		Scan: ScanConfig{
			Origin:      "SFO",
			Destination: "BIH",
			Weeks:       100,
			Adults:      1,
			Currency:    "USD",
			Outfile:     "flights.csv",
			NonStop:     true,
		},
		Server: ServerConfig{
			Addr:                ":8000",
			CSVPath:             "flights.csv",
			CORSAllowedOrigins:  []string{"*"},
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 30,
		},
		Metrics: MetricsConfig{
			Namespace: "weekend_fares",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the optional TOML file at path on top of the defaults, then
// applies .env and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Amadeus.ClientID = os.Getenv("AMADEUS_CLIENT_ID")
	c.Amadeus.ClientSecret = os.Getenv("AMADEUS_CLIENT_SECRET")
	c.Amadeus.Env = getEnv("AMADEUS_ENV", c.Amadeus.Env)
	c.Server.CSVPath = getEnv("FLIGHTS_CSV", c.Server.CSVPath)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
}

// Validate checks the parts of the configuration both commands rely on
func (c *Config) Validate() error {
	if _, err := c.Amadeus.BaseURL(); err != nil {
		return err
	}
	if c.Amadeus.CarrierCode == "" {
		return fmt.Errorf("amadeus.carrier_code must not be empty")
	}
	if c.Amadeus.MaxResults <= 0 {
		return fmt.Errorf("amadeus.max_results must be positive, got %d", c.Amadeus.MaxResults)
	}
	return nil
}

// BaseURL resolves the base URL for the configured environment
func (a AmadeusConfig) BaseURL() (string, error) {
	base, ok := a.BaseURLs[a.Env]
	if !ok || base == "" {
		return "", fmt.Errorf("unknown amadeus environment %q (expected test or prod)", a.Env)
	}
	return strings.TrimRight(base, "/"), nil
}

// AuthTimeout is the per-request timeout for the token exchange
func (a AmadeusConfig) AuthTimeout() time.Duration {
	return time.Duration(a.AuthTimeoutSeconds) * time.Second
}

// SearchTimeout is the per-request timeout for offer searches
func (a AmadeusConfig) SearchTimeout() time.Duration {
	return time.Duration(a.SearchTimeoutSeconds) * time.Second
}

// RateLimitPause is the wait before the single 429 retry
func (a AmadeusConfig) RateLimitPause() time.Duration {
	return time.Duration(a.RateLimitPauseMillis) * time.Millisecond
}

// CourtesyDelay is the pause after every window
func (a AmadeusConfig) CourtesyDelay() time.Duration {
	return time.Duration(a.CourtesyDelayMillis) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
