package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"paperdesk/internal/logger"
	"paperdesk/internal/types"
)

// BackendConfig points at the analysis backend serving price and risk data.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// BackendSource implements Source against the HTTP analysis backend. The
// backend's response shape drifts between deployments, so fields are read
// leniently with gjson instead of a rigid struct.
type BackendSource struct {
	cfg    BackendConfig
	client *resty.Client
}

func NewBackendSource(cfg BackendConfig) (*BackendSource, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend source requires a base URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &BackendSource{cfg: cfg, client: client}, nil
}

var _ Source = (*BackendSource)(nil)

// Fetch pulls /analysis/{symbol} and maps it onto a Snapshot.
func (s *BackendSource) Fetch(ctx context.Context, symbol, interval string) (Snapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Snapshot{}, fmt.Errorf("symbol is required")
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("interval", interval).
		Get("/analysis/" + symbol)
	if err != nil {
		return Snapshot{}, fmt.Errorf("backend fetch %s: %w", symbol, err)
	}
	if resp.IsError() {
		return Snapshot{}, fmt.Errorf("backend fetch %s: status %d", symbol, resp.StatusCode())
	}

	body := resp.String()
	if !gjson.Valid(body) {
		return Snapshot{}, fmt.Errorf("backend fetch %s: response is not valid JSON", symbol)
	}
	root := gjson.Parse(body)
	// Some deployments nest the payload under "analysis".
	if nested := root.Get("analysis"); nested.IsObject() {
		root = nested
	}

	price := root.Get("current_price").Float()
	if price <= 0 {
		return Snapshot{}, fmt.Errorf("backend fetch %s: missing or non-positive current_price", symbol)
	}

	snap := Snapshot{
		Symbol:        symbol,
		Interval:      interval,
		Price:         decimal.NewFromFloat(price),
		ChangePercent: root.Get("price_change_percentage").Float(),
		RiskLevel:     types.RiskMedium,
		Timestamp:     time.Now(),
	}
	if lvl, ok := types.ParseRiskLevel(root.Get("risk_level").String()); ok {
		snap.RiskLevel = lvl
	}
	if ti := root.Get("technical_indicators"); ti.IsObject() {
		snap.Indicators = &Indicators{
			RSI:        ti.Get("rsi").Float(),
			MACD:       firstFloat(ti, "macd.macd", "macd"),
			MACDSignal: firstFloat(ti, "macd.signal", "macd_signal"),
			MACDHist:   firstFloat(ti, "macd.histogram", "macd_hist"),
		}
	}
	logger.Debugf("market: backend snapshot %s price=%s change=%.2f%%", symbol, snap.Price, snap.ChangePercent)
	return snap, nil
}

func firstFloat(root gjson.Result, paths ...string) float64 {
	for _, p := range paths {
		if v := root.Get(p); v.Exists() {
			return v.Float()
		}
	}
	return 0
}
