package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "backend", cfg.Market.Source)
	assert.Equal(t, float64(100000), cfg.Trading.InitialBudget)
	assert.Equal(t, 0.05, cfg.Trading.MinPositionSize)
	assert.Equal(t, 0.30, cfg.Trading.MaxPositionSize)
	assert.Equal(t, float64(70), cfg.Trading.ExecuteThreshold)
	assert.Equal(t, "5min", cfg.Trading.DefaultInterval)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, "data/paperdesk.db", cfg.Store.SessionDBPath)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
market:
  source: binance
trading:
  initial_budget: 250000
  default_interval: 1hour
  buy_vote_weight: 1.5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "binance", cfg.Market.Source)
	assert.Equal(t, float64(250000), cfg.Trading.InitialBudget)
	assert.Equal(t, "1hour", cfg.Trading.DefaultInterval)
	assert.Equal(t, 1.5, cfg.Trading.BuyVoteWeight)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1.1, cfg.Trading.SellVoteWeight)
	assert.Equal(t, float64(60), cfg.Trading.SellThreshold)
}

func TestLoad_ExplicitKeysAreNotOverridden(t *testing.T) {
	// store paths set to empty strings disable persistence; the defaulting
	// pass must honor the explicit empties instead of refilling them.
	path := writeConfig(t, `
store:
  session_db_path: ""
  decision_log_path: ""
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, cfg.Store.SessionDBPath)
	assert.Empty(t, cfg.Store.DecisionLogPath)
}

func TestLoad_RejectsUnknownMarketSource(t *testing.T) {
	path := writeConfig(t, `
market:
  source: carrier-pigeon
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market.source")
}

func TestLoad_RejectsBadInterval(t *testing.T) {
	path := writeConfig(t, `
trading:
  default_interval: 7min
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_interval")
}

func TestLoad_RejectsInvertedPositionBounds(t *testing.T) {
	path := writeConfig(t, `
trading:
  min_position_size: 0.5
  max_position_size: 0.2
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_position_size")
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	require.NoError(t, validate(cfg))
}
