// Package sizing turns decision confidence and risk into bounded position
// sizes, and sizes into concrete share counts. Everything here is pure and
// stateless; the tuning constants are plain configuration with no derivation
// beyond "this is what the desk runs".
package sizing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Config carries the sizing bounds and liquidity adjustments. Fractions are
// 0..1; percents are 0..100.
type Config struct {
	MinPositionSize    float64 // minimum position as fraction of portfolio
	MaxPositionSize    float64 // maximum position as fraction of portfolio
	DefaultSizePercent float64 // assumed when a vote omits its size
	LowCashFraction    float64 // below this cash fraction, halve the size
	HighCashFraction   float64 // above this cash fraction, scale it up
	LowCashMultiplier  float64
	HighCashMultiplier float64
}

// DefaultConfig mirrors the stock tuning: 5%-30% bounds, 10% default vote
// size, halve under 20% cash, scale 1.2x over 80% cash.
func DefaultConfig() Config {
	return Config{
		MinPositionSize:    0.05,
		MaxPositionSize:    0.30,
		DefaultSizePercent: 10,
		LowCashFraction:    0.20,
		HighCashFraction:   0.80,
		LowCashMultiplier:  0.5,
		HighCashMultiplier: 1.2,
	}
}

// Sizer computes position sizes from vote candidates and portfolio
// liquidity.
type Sizer struct {
	cfg Config
}

func New(cfg Config) *Sizer {
	if cfg.DefaultSizePercent <= 0 {
		cfg.DefaultSizePercent = 10
	}
	return &Sizer{cfg: cfg}
}

// Candidate is one vote's sizing input. Percent 0 means the vote did not
// suggest a size.
type Candidate struct {
	Percent    float64
	Confidence float64
}

// Recommend averages the candidate sizes, applies the cash-fraction
// adjustment, then clamps to the configured bounds. The clamp runs strictly
// after the adjustment, so an adjustment can be absorbed entirely by the
// clamp. cashFraction is available cash over total value (0..1).
func (s *Sizer) Recommend(candidates []Candidate, cashFraction float64) float64 {
	if len(candidates) == 0 {
		return s.cfg.DefaultSizePercent
	}
	total := 0.0
	for _, c := range candidates {
		p := c.Percent
		if p <= 0 {
			p = s.cfg.DefaultSizePercent
		}
		total += p
	}
	size := total / float64(len(candidates))

	if cashFraction < s.cfg.LowCashFraction {
		size *= s.cfg.LowCashMultiplier // capital preservation under low liquidity
	} else if cashFraction > s.cfg.HighCashFraction {
		size *= s.cfg.HighCashMultiplier // deploy idle capital
	}

	return clamp(size, s.cfg.MinPositionSize*100, s.cfg.MaxPositionSize*100)
}

// ToQuantity converts a percentage of a reference amount into a whole share
// count at the given price. Reference is available cash for buys; for sells
// the reference is the held share count and price is ignored.
func ToQuantity(percent float64, reference, price decimal.Decimal) int64 {
	if percent <= 0 || !reference.IsPositive() {
		return 0
	}
	amount := reference.Mul(decimal.NewFromFloat(percent)).Div(hundred)
	if price.IsPositive() {
		return amount.Div(price).IntPart()
	}
	return amount.IntPart()
}

// SellQuantity is ToQuantity specialized to a held share count, where the
// calculation degenerates to floor(held * percent / 100).
func SellQuantity(percent float64, held int64) int64 {
	return ToQuantity(percent, decimal.NewFromInt(held), decimal.Decimal{})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
