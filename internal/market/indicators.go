package market

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"paperdesk/internal/types"
)

const (
	rsiPeriod  = 14
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// ComputeIndicators derives RSI(14) and MACD(12,26,9) from a close series.
// Returns nil when the series is too short for the slow EMA.
func ComputeIndicators(closes []float64) *Indicators {
	if len(closes) < macdSlow+macdSignal {
		return nil
	}
	rsi := talib.Rsi(closes, rsiPeriod)
	macd, signal, hist := talib.Macd(closes, macdFast, macdSlow, macdSignal)
	if len(rsi) == 0 || len(macd) == 0 {
		return nil
	}
	return &Indicators{
		RSI:        rsi[len(rsi)-1],
		MACD:       macd[len(macd)-1],
		MACDSignal: signal[len(signal)-1],
		MACDHist:   hist[len(hist)-1],
	}
}

// riskFromCloses grades recent close-to-close volatility onto the five-step
// risk scale. The bucket cut points are percentage standard deviation of
// simple returns over the lookback window.
func riskFromCloses(closes []float64) types.RiskLevel {
	if len(closes) < 3 {
		return types.RiskMedium
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1]*100)
	}
	if len(returns) == 0 {
		return types.RiskMedium
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stddev := math.Sqrt(variance / float64(len(returns)))
	switch {
	case stddev < 0.5:
		return types.RiskVeryLow
	case stddev < 1.0:
		return types.RiskLow
	case stddev < 2.0:
		return types.RiskMedium
	case stddev < 3.5:
		return types.RiskHigh
	default:
		return types.RiskVeryHigh
	}
}
