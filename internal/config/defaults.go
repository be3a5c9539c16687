package config

import "strings"

const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":8080"

	defaultMarketSource  = "backend"
	defaultBackendURL    = "http://localhost:8000"
	defaultBinanceREST   = "https://api.binance.com"
	defaultMarketTimeout = 30

	defaultInitialBudget      = 100000
	defaultMinPositionSize    = 0.05
	defaultMaxPositionSize    = 0.30
	defaultSizePercent        = 10
	defaultLowCashFraction    = 0.20
	defaultHighCashFraction   = 0.80
	defaultLowCashMultiplier  = 0.5
	defaultHighCashMultiplier = 1.2
	defaultStopLossPct        = 0.05
	defaultTakeProfitPct      = 0.15
	defaultBuyVoteWeight      = 1.2
	defaultSellVoteWeight     = 1.1
	defaultBuyThreshold       = 70
	defaultSellThreshold      = 60
	defaultInterval           = "5min"
	defaultMaxAutoIterations  = 10

	defaultSessionDBPath   = "data/paperdesk.db"
	defaultDecisionLogPath = "data/decisions.db"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("market.source", &m.Source, defaultMarketSource),
		stringFieldDefault("market.backend_base_url", &m.BackendBaseURL, defaultBackendURL),
		stringFieldDefault("market.binance_rest_url", &m.BinanceRESTURL, defaultBinanceREST),
		intFieldDefault("market.timeout_seconds", &m.TimeoutSeconds, defaultMarketTimeout),
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		floatFieldDefault("trading.initial_budget", &t.InitialBudget, defaultInitialBudget),
		floatFieldDefault("trading.min_position_size", &t.MinPositionSize, defaultMinPositionSize),
		floatFieldDefault("trading.max_position_size", &t.MaxPositionSize, defaultMaxPositionSize),
		floatFieldDefault("trading.default_size_percent", &t.DefaultSizePercent, defaultSizePercent),
		floatFieldDefault("trading.low_cash_fraction", &t.LowCashFraction, defaultLowCashFraction),
		floatFieldDefault("trading.high_cash_fraction", &t.HighCashFraction, defaultHighCashFraction),
		floatFieldDefault("trading.low_cash_multiplier", &t.LowCashMultiplier, defaultLowCashMultiplier),
		floatFieldDefault("trading.high_cash_multiplier", &t.HighCashMultiplier, defaultHighCashMultiplier),
		floatFieldDefault("trading.stop_loss_pct", &t.StopLossPct, defaultStopLossPct),
		floatFieldDefault("trading.take_profit_pct", &t.TakeProfitPct, defaultTakeProfitPct),
		floatFieldDefault("trading.buy_vote_weight", &t.BuyVoteWeight, defaultBuyVoteWeight),
		floatFieldDefault("trading.sell_vote_weight", &t.SellVoteWeight, defaultSellVoteWeight),
		floatFieldDefault("trading.buy_threshold", &t.BuyThreshold, defaultBuyThreshold),
		floatFieldDefault("trading.sell_threshold", &t.SellThreshold, defaultSellThreshold),
		floatFieldDefault("trading.execute_threshold", &t.ExecuteThreshold, defaultBuyThreshold),
		stringFieldDefault("trading.default_interval", &t.DefaultInterval, defaultInterval),
		intFieldDefault("trading.max_auto_iterations", &t.MaxAutoIterations, defaultMaxAutoIterations),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("store.session_db_path", &s.SessionDBPath, defaultSessionDBPath),
		stringFieldDefault("store.decision_log_path", &s.DecisionLogPath, defaultDecisionLogPath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return strings.TrimSpace(*target) == "" },
		apply: func() { *target = def },
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}
