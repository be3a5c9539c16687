// Package config loads the desk configuration from YAML, filling every
// unset key with the stock defaults. Keys explicitly present in the file are
// never overridden, even when set to a zero value.
package config

import "strings"

// Config is the full application configuration.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Market  MarketConfig  `mapstructure:"market"`
	Trading TradingConfig `mapstructure:"trading"`
	Store   StoreConfig   `mapstructure:"store"`
	Profile ProfileConfig `mapstructure:"profile"`
}

// AppConfig covers process-level settings.
type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
	LogPath  string `mapstructure:"log_path"`
}

// MarketConfig selects and tunes the market data source.
type MarketConfig struct {
	Source         string `mapstructure:"source"` // "backend" or "binance"
	BackendBaseURL string `mapstructure:"backend_base_url"`
	BinanceRESTURL string `mapstructure:"binance_rest_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// TradingConfig carries the desk tuning. All of these are deliberate stock
// values with no derivation; they ship as overridable configuration.
type TradingConfig struct {
	InitialBudget      float64 `mapstructure:"initial_budget"`
	MinPositionSize    float64 `mapstructure:"min_position_size"` // fraction
	MaxPositionSize    float64 `mapstructure:"max_position_size"` // fraction
	DefaultSizePercent float64 `mapstructure:"default_size_percent"`
	LowCashFraction    float64 `mapstructure:"low_cash_fraction"`
	HighCashFraction   float64 `mapstructure:"high_cash_fraction"`
	LowCashMultiplier  float64 `mapstructure:"low_cash_multiplier"`
	HighCashMultiplier float64 `mapstructure:"high_cash_multiplier"`
	StopLossPct        float64 `mapstructure:"stop_loss_pct"`
	TakeProfitPct      float64 `mapstructure:"take_profit_pct"`
	BuyVoteWeight      float64 `mapstructure:"buy_vote_weight"`
	SellVoteWeight     float64 `mapstructure:"sell_vote_weight"`
	BuyThreshold       float64 `mapstructure:"buy_threshold"`
	SellThreshold      float64 `mapstructure:"sell_threshold"`
	ExecuteThreshold   float64 `mapstructure:"execute_threshold"`
	DefaultInterval    string  `mapstructure:"default_interval"`
	MaxAutoIterations  int     `mapstructure:"max_auto_iterations"`
}

// StoreConfig points at the SQLite databases. Empty paths disable the
// corresponding store.
type StoreConfig struct {
	SessionDBPath   string `mapstructure:"session_db_path"`
	DecisionLogPath string `mapstructure:"decision_log_path"`
}

// ProfileConfig points at the agent roster file. Empty disables hot
// profiles; every agent then votes with weight 1.
type ProfileConfig struct {
	Path string `mapstructure:"path"`
}

// keySet tracks which paths the config file set explicitly.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

// fieldDefault is one field's defaulting rule.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
