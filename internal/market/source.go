// Package market defines the market-data collaborator contract consumed by
// trading sessions, plus the bundled analysis-backend and Binance
// implementations.
package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"paperdesk/internal/types"
)

// Indicators is a compact technical snapshot attached to each fetch for the
// decision source's benefit.
type Indicators struct {
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`
}

// Candle is one OHLCV bar.
type Candle struct {
	OpenTime  int64
	CloseTime int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Snapshot is the per-turn market view for one symbol. A failed fetch means
// no snapshot for that turn; it never crashes the ledger.
type Snapshot struct {
	Symbol        string          `json:"symbol"`
	Interval      string          `json:"interval"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent float64         `json:"change_percent"`
	RiskLevel     types.RiskLevel `json:"risk_level"`
	Indicators    *Indicators     `json:"indicators,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Source fetches the current market snapshot for a symbol at an interval.
type Source interface {
	Fetch(ctx context.Context, symbol, interval string) (Snapshot, error)
}
