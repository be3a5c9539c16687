package sizing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"paperdesk/internal/types"
)

func TestRecommend(t *testing.T) {
	s := New(DefaultConfig())

	tests := []struct {
		name         string
		candidates   []Candidate
		cashFraction float64
		want         float64
	}{
		{
			name:         "plain average",
			candidates:   []Candidate{{Percent: 10}, {Percent: 20}},
			cashFraction: 0.5,
			want:         15,
		},
		{
			name:         "omitted sizes default to 10",
			candidates:   []Candidate{{Confidence: 80}, {Percent: 30}},
			cashFraction: 0.5,
			want:         20,
		},
		{
			name:         "low cash halves before clamp",
			candidates:   []Candidate{{Percent: 20}, {Percent: 20}},
			cashFraction: 0.10,
			want:         10,
		},
		{
			name:         "high cash scales up",
			candidates:   []Candidate{{Percent: 20}},
			cashFraction: 0.95,
			want:         24,
		},
		{
			name:         "clamp absorbs the adjustment entirely",
			candidates:   []Candidate{{Percent: 8}},
			cashFraction: 0.10,
			want:         5, // 8 * 0.5 = 4, clamped up to the 5% floor
		},
		{
			name:         "clamped to max",
			candidates:   []Candidate{{Percent: 40}},
			cashFraction: 0.95,
			want:         30,
		},
		{
			name:         "empty votes fall back to default",
			candidates:   nil,
			cashFraction: 0.95,
			want:         10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Recommend(tt.candidates, tt.cashFraction)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestToQuantity(t *testing.T) {
	// 15% of 100000 cash at 1500/share floors to 10 shares.
	got := ToQuantity(15, decimal.NewFromInt(100000), decimal.NewFromInt(1500))
	assert.EqualValues(t, 10, got)

	// Sub-share amounts floor to zero.
	got = ToQuantity(1, decimal.NewFromInt(1000), decimal.NewFromInt(5000))
	assert.EqualValues(t, 0, got)

	assert.EqualValues(t, 0, ToQuantity(0, decimal.NewFromInt(1000), decimal.NewFromInt(10)))
}

func TestSellQuantity(t *testing.T) {
	assert.EqualValues(t, 5, SellQuantity(50, 10))
	assert.EqualValues(t, 2, SellQuantity(25, 10))
	assert.EqualValues(t, 7, SellQuantity(75, 10))
	assert.EqualValues(t, 0, SellQuantity(5, 10))
}

func TestRiskAdjustedLevels(t *testing.T) {
	cfg := DefaultRiskConfig()
	price := decimal.NewFromInt(1000)

	tests := []struct {
		level      types.RiskLevel
		wantStop   float64
		wantTarget float64
	}{
		{types.RiskVeryLow, 975, 1225},  // stop 2.5%, target 22.5%
		{types.RiskLow, 962.5, 1187.5},  // stop 3.75%, target 18.75%
		{types.RiskMedium, 950, 1150},   // stock 5% / 15%
		{types.RiskHigh, 937.5, 1112.5}, // stop 6.25%, target 11.25%
		{types.RiskVeryHigh, 925, 1075}, // stop 7.5%, target 7.5%
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			stop, target := RiskAdjustedLevels(cfg, price, tt.level)
			assert.True(t, stop.Equal(decimal.NewFromFloat(tt.wantStop)), "stop = %s", stop)
			assert.True(t, target.Equal(decimal.NewFromFloat(tt.wantTarget)), "target = %s", target)
		})
	}
}

func TestConfidenceSize(t *testing.T) {
	s := New(DefaultConfig())

	// 80 confidence at medium risk: 0.8*0.30*0.8 = 19.2%.
	assert.InDelta(t, 19.2, s.ConfidenceSize(80, types.RiskMedium), 1e-9)
	// Very high risk shrinks below the floor and clamps to 5%.
	assert.InDelta(t, 5, s.ConfidenceSize(20, types.RiskVeryHigh), 1e-9)
	// Very low risk can reach the cap.
	assert.InDelta(t, 30, s.ConfidenceSize(100, types.RiskVeryLow), 1e-9)
}
