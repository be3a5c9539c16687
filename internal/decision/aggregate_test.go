package decision

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperdesk/internal/types"
)

func vote(agent types.AgentType, action types.VoteAction, confidence float64, risk types.RiskLevel) Vote {
	return Vote{AgentType: agent, Action: action, Confidence: confidence, RiskLevel: risk}
}

func TestCombine_EmptyVotesIsDegenerateHold(t *testing.T) {
	agg := NewAggregator(DefaultConfig(), nil)

	d := agg.Combine("RELIANCE", nil, decimal.NewFromInt(1000))

	assert.Equal(t, types.ActionHold, d.FinalAction)
	assert.Zero(t, d.Confidence)
	assert.Equal(t, types.RiskMedium, d.RiskLevel)
	assert.Nil(t, d.StopLoss)
	assert.Nil(t, d.TakeProfit)
	assert.Equal(t, "1hour", d.NextPollInterval)
}

func TestCombine_BuyMajorityBelowThresholdDegradesToHold(t *testing.T) {
	agg := NewAggregator(DefaultConfig(), nil)

	votes := []Vote{
		vote(types.AgentTechnical, types.VoteBuy, 60, types.RiskMedium),
		vote(types.AgentSector, types.VoteBuy, 60, types.RiskMedium),
		vote(types.AgentML, types.VoteBuy, 60, types.RiskMedium),
	}
	d := agg.Combine("RELIANCE", votes, decimal.NewFromInt(1000))

	assert.Equal(t, types.ActionHold, d.FinalAction, "buy majority must still clear the confidence threshold")
	assert.InDelta(t, 60, d.Confidence, 0.001)
	assert.Nil(t, d.StopLoss)
	assert.Nil(t, d.TakeProfit)
}

func TestCombine_BuyMajorityAboveThreshold(t *testing.T) {
	agg := NewAggregator(DefaultConfig(), nil)

	votes := []Vote{
		vote(types.AgentTechnical, types.VoteStrongBuy, 85, types.RiskMedium),
		vote(types.AgentSector, types.VoteBuy, 80, types.RiskMedium),
		vote(types.AgentML, types.VoteBuy, 75, types.RiskMedium),
		vote(types.AgentPortfolio, types.VoteHold, 50, types.RiskMedium),
	}
	d := agg.Combine("RELIANCE", votes, decimal.NewFromInt(1000))

	require.Equal(t, types.ActionBuy, d.FinalAction)
	assert.Equal(t, types.RiskMedium, d.RiskLevel)
	require.NotNil(t, d.StopLoss)
	require.NotNil(t, d.TakeProfit)
	assert.True(t, d.StopLoss.Equal(decimal.NewFromInt(950)), "stop = %s", d.StopLoss)
	assert.True(t, d.TakeProfit.Equal(decimal.NewFromInt(1150)), "target = %s", d.TakeProfit)
}

func TestCombine_SellMajorityAboveThreshold(t *testing.T) {
	agg := NewAggregator(DefaultConfig(), nil)

	votes := []Vote{
		vote(types.AgentTechnical, types.VoteSell, 65, types.RiskHigh),
		vote(types.AgentRisk, types.VoteStrongSell, 65, types.RiskHigh),
		vote(types.AgentML, types.VoteSell, 65, types.RiskMedium),
	}
	d := agg.Combine("TCS", votes, decimal.NewFromInt(1000))

	require.Equal(t, types.ActionSell, d.FinalAction)
	assert.InDelta(t, 65, d.Confidence, 0.001)
	// Risk scores (4+4+3)/3 round up to HIGH: stop 6.25%, target 11.25%.
	assert.Equal(t, types.RiskHigh, d.RiskLevel)
	require.NotNil(t, d.StopLoss)
	assert.True(t, d.StopLoss.Equal(decimal.NewFromFloat(937.5)), "stop = %s", d.StopLoss)
	assert.True(t, d.TakeProfit.Equal(decimal.NewFromFloat(1112.5)), "target = %s", d.TakeProfit)
}

func TestCombine_TieFavorsHold(t *testing.T) {
	agg := NewAggregator(DefaultConfig(), nil)

	votes := []Vote{
		vote(types.AgentTechnical, types.VoteBuy, 90, types.RiskMedium),
		vote(types.AgentSector, types.VoteBuy, 90, types.RiskMedium),
		vote(types.AgentML, types.VoteSell, 90, types.RiskMedium),
		vote(types.AgentRisk, types.VoteSell, 90, types.RiskMedium),
	}
	d := agg.Combine("INFY", votes, decimal.NewFromInt(500))

	assert.Equal(t, types.ActionHold, d.FinalAction)
	assert.Nil(t, d.StopLoss)
}

func TestCombine_ZeroWeightAgentIsExcluded(t *testing.T) {
	weights := func(a types.AgentType) float64 {
		if a == types.AgentTechnical {
			return 0
		}
		return 1
	}
	agg := NewAggregator(DefaultConfig(), weights)

	votes := []Vote{
		vote(types.AgentTechnical, types.VoteStrongBuy, 95, types.RiskLow),
		vote(types.AgentRisk, types.VoteSell, 65, types.RiskMedium),
	}
	d := agg.Combine("INFY", votes, decimal.NewFromInt(500))

	assert.Equal(t, types.ActionSell, d.FinalAction)
	assert.InDelta(t, 65, d.Confidence, 0.001)
}

func TestCombine_ZeroPriceOmitsLevels(t *testing.T) {
	agg := NewAggregator(DefaultConfig(), nil)

	votes := []Vote{
		vote(types.AgentTechnical, types.VoteStrongBuy, 90, types.RiskMedium),
		vote(types.AgentSector, types.VoteBuy, 85, types.RiskMedium),
		vote(types.AgentML, types.VoteBuy, 85, types.RiskMedium),
	}
	d := agg.Combine("RELIANCE", votes, decimal.Zero)

	require.Equal(t, types.ActionBuy, d.FinalAction)
	assert.Nil(t, d.StopLoss)
	assert.Nil(t, d.TakeProfit)
}

func TestNextPollInterval(t *testing.T) {
	cases := []struct {
		name       string
		action     types.Action
		confidence float64
		want       string
	}{
		{"committed buy monitors hourly", types.ActionBuy, 90, "1hour"},
		{"committed sell monitors hourly", types.ActionSell, 85, "1hour"},
		{"high confidence polls fast", types.ActionHold, 75, "5min"},
		{"medium confidence", types.ActionHold, 60, "15min"},
		{"low confidence backs off", types.ActionHold, 40, "1hour"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextPollInterval(tc.action, tc.confidence))
		})
	}
}

func TestCombine_RiskAveragingUsesCutPoints(t *testing.T) {
	agg := NewAggregator(DefaultConfig(), nil)

	votes := []Vote{
		vote(types.AgentTechnical, types.VoteHold, 50, types.RiskVeryLow),
		vote(types.AgentSector, types.VoteHold, 50, types.RiskVeryLow),
		vote(types.AgentML, types.VoteHold, 50, types.RiskLow),
	}
	// Scores (1+1+2)/3 = 1.33 land below the 1.5 cut point.
	d := agg.Combine("TCS", votes, decimal.NewFromInt(100))
	assert.Equal(t, types.RiskVeryLow, d.RiskLevel)
}
