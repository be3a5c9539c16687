package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"paperdesk/internal/logger"
)

const binanceHistoryLimit = 120

// BinanceConfig selects the spot REST endpoint for crypto sessions.
type BinanceConfig struct {
	RESTBaseURL string
	Timeout     time.Duration
}

// BinanceSource implements Source for crypto symbols using the Binance spot
// SDK. The snapshot price is the latest kline close; indicators and the
// risk grade are derived locally from the close history.
type BinanceSource struct {
	client *binance.Client
}

func NewBinanceSource(cfg BinanceConfig) *BinanceSource {
	client := binance.NewClient("", "")
	if base := strings.TrimSpace(cfg.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}
	return &BinanceSource{client: client}
}

var _ Source = (*BinanceSource)(nil)

func (s *BinanceSource) Fetch(ctx context.Context, symbol, interval string) (Snapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Snapshot{}, fmt.Errorf("symbol is required")
	}
	binInterval, ok := binanceInterval(interval)
	if !ok {
		return Snapshot{}, fmt.Errorf("unsupported interval %q", interval)
	}
	kls, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(binInterval).
		Limit(binanceHistoryLimit).
		Do(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("binance klines %s: %w", symbol, err)
	}
	if len(kls) == 0 {
		return Snapshot{}, fmt.Errorf("binance klines %s: empty response", symbol)
	}

	closes := make([]float64, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		c, err := strconv.ParseFloat(kl.Close, 64)
		if err != nil {
			continue
		}
		closes = append(closes, c)
	}
	if len(closes) == 0 {
		return Snapshot{}, fmt.Errorf("binance klines %s: no parsable closes", symbol)
	}

	last := closes[len(closes)-1]
	change := 0.0
	if len(closes) > 1 && closes[len(closes)-2] != 0 {
		change = (last - closes[len(closes)-2]) / closes[len(closes)-2] * 100
	}
	snap := Snapshot{
		Symbol:        symbol,
		Interval:      interval,
		Price:         decimal.NewFromFloat(last),
		ChangePercent: change,
		RiskLevel:     riskFromCloses(closes),
		Indicators:    ComputeIndicators(closes),
		Timestamp:     time.Now(),
	}
	logger.Debugf("market: binance snapshot %s price=%s risk=%s", symbol, snap.Price, snap.RiskLevel)
	return snap, nil
}

// binanceInterval maps the session interval tags onto Binance kline
// intervals.
func binanceInterval(interval string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(interval)) {
	case "1min":
		return "1m", true
	case "5min":
		return "5m", true
	case "15min":
		return "15m", true
	case "30min":
		return "30m", true
	case "1hour", "":
		return "1h", true
	case "1day":
		return "1d", true
	default:
		return "", false
	}
}
