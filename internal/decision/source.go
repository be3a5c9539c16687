package decision

import (
	"context"

	"paperdesk/internal/ledger"
	"paperdesk/internal/market"
	"paperdesk/internal/types"
)

// StaticSource is a deterministic, rule-based vote source. It stands in for
// the external LLM specialist agents in simulation and tests: same snapshot
// and portfolio in, same votes out.
type StaticSource struct{}

var _ Source = StaticSource{}

func (StaticSource) Poll(_ context.Context, symbol string, snap market.Snapshot, state ledger.State) ([]Vote, error) {
	votes := []Vote{
		technicalVote(snap),
		sectorVote(snap),
		riskVote(snap),
		mlVote(snap),
		portfolioVote(symbol, state),
	}
	return votes, nil
}

func technicalVote(snap market.Snapshot) Vote {
	v := Vote{AgentType: types.AgentTechnical, Action: types.VoteHold, Confidence: 50, RiskLevel: snap.RiskLevel}
	ind := snap.Indicators
	if ind == nil {
		v.Reasoning = "no indicator data"
		return v
	}
	switch {
	case ind.RSI > 0 && ind.RSI < 30:
		v.Action, v.Confidence, v.Reasoning = types.VoteStrongBuy, 80, "RSI oversold"
	case ind.RSI > 70:
		v.Action, v.Confidence, v.Reasoning = types.VoteStrongSell, 78, "RSI overbought"
	case ind.MACDHist > 0:
		v.Action, v.Confidence, v.Reasoning = types.VoteBuy, 65, "MACD histogram positive"
	case ind.MACDHist < 0:
		v.Action, v.Confidence, v.Reasoning = types.VoteSell, 60, "MACD histogram negative"
	default:
		v.Reasoning = "indicators neutral"
	}
	v.PositionSizePercent = 10
	return v
}

func sectorVote(snap market.Snapshot) Vote {
	v := Vote{AgentType: types.AgentSector, Action: types.VoteHold, Confidence: 50, RiskLevel: snap.RiskLevel, PositionSizePercent: 10}
	switch {
	case snap.ChangePercent >= 1.5:
		v.Action, v.Confidence, v.Reasoning = types.VoteBuy, 62, "outperforming on the session"
	case snap.ChangePercent <= -1.5:
		v.Action, v.Confidence, v.Reasoning = types.VoteSell, 58, "underperforming on the session"
	default:
		v.Reasoning = "sector move within noise"
	}
	return v
}

func riskVote(snap market.Snapshot) Vote {
	v := Vote{AgentType: types.AgentRisk, RiskLevel: snap.RiskLevel}
	switch snap.RiskLevel {
	case types.RiskVeryLow, types.RiskLow:
		v.Action, v.Confidence, v.PositionSizePercent, v.Reasoning = types.VoteBuy, 60, 15, "volatility supports adding"
	case types.RiskHigh:
		v.Action, v.Confidence, v.PositionSizePercent, v.Reasoning = types.VoteHold, 55, 7, "elevated volatility"
	case types.RiskVeryHigh:
		v.Action, v.Confidence, v.PositionSizePercent, v.Reasoning = types.VoteSell, 60, 5, "volatility too high to hold size"
	default:
		v.Action, v.Confidence, v.PositionSizePercent, v.Reasoning = types.VoteHold, 50, 10, "normal volatility"
	}
	return v
}

func mlVote(snap market.Snapshot) Vote {
	v := Vote{AgentType: types.AgentML, Action: types.VoteHold, Confidence: 50, RiskLevel: snap.RiskLevel, PositionSizePercent: 10}
	ind := snap.Indicators
	if ind == nil {
		v.Reasoning = "no model features"
		return v
	}
	switch {
	case ind.MACD > ind.MACDSignal:
		v.Action, v.Confidence, v.Reasoning = types.VoteBuy, 64, "momentum model positive"
	case ind.MACD < ind.MACDSignal:
		v.Action, v.Confidence, v.Reasoning = types.VoteSell, 61, "momentum model negative"
	default:
		v.Reasoning = "momentum model flat"
	}
	return v
}

func portfolioVote(symbol string, state ledger.State) Vote {
	v := Vote{AgentType: types.AgentPortfolio, Action: types.VoteHold, Confidence: 50, RiskLevel: types.RiskMedium, PositionSizePercent: 10}
	pos, held := state.Positions[symbol]
	if held {
		switch {
		case pos.UnrealizedPnLPercent >= 10:
			v.Action, v.Confidence, v.Reasoning = types.VoteSell, 70, "take profit on extended winner"
		case pos.UnrealizedPnLPercent <= -5:
			v.Action, v.Confidence, v.Reasoning = types.VoteSell, 65, "cut loss past tolerance"
		default:
			v.Reasoning = "position within plan"
		}
		return v
	}
	if state.CashFraction() > 0.8 {
		v.Action, v.Confidence, v.Reasoning = types.VoteBuy, 58, "idle cash available to deploy"
	} else {
		v.Reasoning = "no position, limited spare cash"
	}
	return v
}
