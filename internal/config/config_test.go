package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AMADEUS_CLIENT_ID",
		"AMADEUS_CLIENT_SECRET",
		"AMADEUS_ENV",
		"FLIGHTS_CSV",
		"LOG_LEVEL",
		"LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "test", cfg.Amadeus.Env)
	require.Equal(t, "UA", cfg.Amadeus.CarrierCode)
	require.Equal(t, 250, cfg.Amadeus.MaxResults)
	require.Equal(t, 20*time.Second, cfg.Amadeus.AuthTimeout())
	require.Equal(t, 30*time.Second, cfg.Amadeus.SearchTimeout())
	require.Equal(t, 2*time.Second, cfg.Amadeus.RateLimitPause())
	require.Equal(t, 250*time.Millisecond, cfg.Amadeus.CourtesyDelay())
	require.Equal(t, "SFO", cfg.Scan.Origin)
	require.Equal(t, "BIH", cfg.Scan.Destination)
	require.Equal(t, 100, cfg.Scan.Weeks)
	require.True(t, cfg.Scan.NonStop)
	require.Equal(t, ":8000", cfg.Server.Addr)
	require.Empty(t, cfg.Storage.SQLitePath)

	base, err := cfg.Amadeus.BaseURL()
	require.NoError(t, err)
	require.Equal(t, "https://test.api.amadeus.com", base)
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("AMADEUS_CLIENT_ID", "id")
	t.Setenv("AMADEUS_CLIENT_SECRET", "secret")
	t.Setenv("AMADEUS_ENV", "prod")
	t.Setenv("FLIGHTS_CSV", "/data/flights.csv")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[amadeus]
courtesy_delay_ms = 0

[amadeus.base_urls]
prod = "https://prod.example.com/"

[scan]
origin = "OAK"
weeks = 12

[storage]
sqlite_path = "scans.db"

[logging]
level = "debug"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "id", cfg.Amadeus.ClientID)
	require.Equal(t, "secret", cfg.Amadeus.ClientSecret)
	require.Equal(t, "prod", cfg.Amadeus.Env)
	require.Equal(t, time.Duration(0), cfg.Amadeus.CourtesyDelay())
	require.Equal(t, "OAK", cfg.Scan.Origin)
	require.Equal(t, "BIH", cfg.Scan.Destination)
	require.Equal(t, 12, cfg.Scan.Weeks)
	require.Equal(t, "/data/flights.csv", cfg.Server.CSVPath)
	require.Equal(t, "scans.db", cfg.Storage.SQLitePath)
	require.Equal(t, "debug", cfg.Logging.Level)

	base, err := cfg.Amadeus.BaseURL()
	require.NoError(t, err)
	require.Equal(t, "https://prod.example.com", base)
}

func TestLoadRejectsUnknownEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("AMADEUS_ENV", "staging")

	_, err := Load("")
	require.ErrorContains(t, err, `unknown amadeus environment "staging"`)
}

func TestLoadRejectsBadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scan\norigin="), 0o644))

	_, err := Load(path)
	require.ErrorContains(t, err, "failed to decode config file")
}
