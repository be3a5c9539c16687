package sizing

import (
	"github.com/shopspring/decimal"

	"paperdesk/internal/types"
)

// RiskConfig carries the base stop-loss/take-profit percentages, as
// fractions of price.
type RiskConfig struct {
	StopLossPct   float64
	TakeProfitPct float64
}

// DefaultRiskConfig is the stock 5% stop / 15% target.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{StopLossPct: 0.05, TakeProfitPct: 0.15}
}

// riskScale holds the per-level multipliers for stop and target. Lower risk
// tightens the stop and widens the target; higher risk does the opposite.
type riskScale struct {
	stop   float64
	target float64
}

var riskScales = map[types.RiskLevel]riskScale{
	types.RiskVeryLow:  {stop: 0.5, target: 1.5},
	types.RiskLow:      {stop: 0.75, target: 1.25},
	types.RiskMedium:   {stop: 1.0, target: 1.0},
	types.RiskHigh:     {stop: 1.25, target: 0.75},
	types.RiskVeryHigh: {stop: 1.5, target: 0.5},
}

// RiskAdjustedLevels derives stop-loss and take-profit prices from the
// current price and the decision's risk level.
func RiskAdjustedLevels(cfg RiskConfig, price decimal.Decimal, level types.RiskLevel) (stopLoss, takeProfit decimal.Decimal) {
	scale, ok := riskScales[level]
	if !ok {
		scale = riskScales[types.RiskMedium]
	}
	one := decimal.NewFromInt(1)
	stopPct := decimal.NewFromFloat(cfg.StopLossPct * scale.stop)
	targetPct := decimal.NewFromFloat(cfg.TakeProfitPct * scale.target)
	stopLoss = price.Mul(one.Sub(stopPct))
	takeProfit = price.Mul(one.Add(targetPct))
	return stopLoss, takeProfit
}

// confidenceRiskMultipliers scale the confidence-driven base size; riskier
// names get smaller allocations.
var confidenceRiskMultipliers = map[types.RiskLevel]float64{
	types.RiskVeryLow:  1.2,
	types.RiskLow:      1.0,
	types.RiskMedium:   0.8,
	types.RiskHigh:     0.6,
	types.RiskVeryHigh: 0.4,
}

// ConfidenceSize recommends a position size percent from a confidence score
// (0..100) and a risk level: base = confidence/100 * MaxPositionSize, scaled
// by the risk multiplier, clamped to the configured bounds.
func (s *Sizer) ConfidenceSize(confidence float64, level types.RiskLevel) float64 {
	base := confidence / 100 * s.cfg.MaxPositionSize
	mult, ok := confidenceRiskMultipliers[level]
	if !ok {
		mult = confidenceRiskMultipliers[types.RiskMedium]
	}
	adjusted := clamp(base*mult, s.cfg.MinPositionSize, s.cfg.MaxPositionSize)
	return adjusted * 100
}
