package config

import (
	"fmt"
	"strings"

	"paperdesk/internal/scheduler"
)

func validate(c *Config) error {
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	return nil
}

func (m *MarketConfig) validate() error {
	source := strings.ToLower(strings.TrimSpace(m.Source))
	switch source {
	case "backend":
		if strings.TrimSpace(m.BackendBaseURL) == "" {
			return fmt.Errorf("market.backend_base_url cannot be empty when source=backend")
		}
	case "binance":
		if strings.TrimSpace(m.BinanceRESTURL) == "" {
			return fmt.Errorf("market.binance_rest_url cannot be empty when source=binance")
		}
	default:
		return fmt.Errorf("market.source only supports 'backend' or 'binance', got %s", m.Source)
	}
	if m.TimeoutSeconds <= 0 {
		return fmt.Errorf("market.timeout_seconds must be > 0")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if t.InitialBudget <= 0 {
		return fmt.Errorf("trading.initial_budget must be > 0")
	}
	if t.MinPositionSize <= 0 || t.MinPositionSize >= 1 {
		return fmt.Errorf("trading.min_position_size must be in (0, 1)")
	}
	if t.MaxPositionSize <= 0 || t.MaxPositionSize > 1 {
		return fmt.Errorf("trading.max_position_size must be in (0, 1]")
	}
	if t.MinPositionSize >= t.MaxPositionSize {
		return fmt.Errorf("trading.min_position_size must be < trading.max_position_size")
	}
	if t.LowCashFraction >= t.HighCashFraction {
		return fmt.Errorf("trading.low_cash_fraction must be < trading.high_cash_fraction")
	}
	if t.StopLossPct <= 0 || t.StopLossPct >= 1 {
		return fmt.Errorf("trading.stop_loss_pct must be in (0, 1)")
	}
	if t.TakeProfitPct <= 0 {
		return fmt.Errorf("trading.take_profit_pct must be > 0")
	}
	if t.BuyThreshold <= 0 || t.BuyThreshold > 100 {
		return fmt.Errorf("trading.buy_threshold must be in (0, 100]")
	}
	if t.SellThreshold <= 0 || t.SellThreshold > 100 {
		return fmt.Errorf("trading.sell_threshold must be in (0, 100]")
	}
	if t.ExecuteThreshold <= 0 || t.ExecuteThreshold > 100 {
		return fmt.Errorf("trading.execute_threshold must be in (0, 100]")
	}
	if !scheduler.IsValidInterval(t.DefaultInterval) {
		return fmt.Errorf("trading.default_interval %s not supported (known: %s)",
			t.DefaultInterval, strings.Join(scheduler.KnownIntervals(), ", "))
	}
	if t.MaxAutoIterations <= 0 {
		return fmt.Errorf("trading.max_auto_iterations must be > 0")
	}
	return nil
}
