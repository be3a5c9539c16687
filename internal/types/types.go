package types

import "strings"

// Action is a final trading action executed against the ledger.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ParseAction normalizes free-form action text ("buy", " Sell ") into an
// Action. Returns false for anything that is not buy/sell/hold.
func ParseAction(raw string) (Action, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BUY":
		return ActionBuy, true
	case "SELL":
		return ActionSell, true
	case "HOLD":
		return ActionHold, true
	default:
		return "", false
	}
}

// VoteAction is a specialist agent's raw recommendation, pre-aggregation.
type VoteAction string

const (
	VoteStrongBuy  VoteAction = "STRONG_BUY"
	VoteBuy        VoteAction = "BUY"
	VoteHold       VoteAction = "HOLD"
	VoteSell       VoteAction = "SELL"
	VoteStrongSell VoteAction = "STRONG_SELL"
)

// Bucket maps a vote action onto the buy/sell/hold tally bucket.
// Anything unrecognized counts as HOLD.
func (v VoteAction) Bucket() Action {
	switch v {
	case VoteStrongBuy, VoteBuy:
		return ActionBuy
	case VoteStrongSell, VoteSell:
		return ActionSell
	default:
		return ActionHold
	}
}

// ParseVoteAction normalizes free-form vote text into a VoteAction.
func ParseVoteAction(raw string) (VoteAction, bool) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", "_")) {
	case "STRONG_BUY":
		return VoteStrongBuy, true
	case "BUY":
		return VoteBuy, true
	case "HOLD":
		return VoteHold, true
	case "SELL":
		return VoteSell, true
	case "STRONG_SELL":
		return VoteStrongSell, true
	default:
		return "", false
	}
}

// RiskLevel is the five-step risk scale shared by votes and decisions.
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "VERY_LOW"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// Score maps a risk level to its ordinal 1..5. Unknown levels score as
// medium, matching the degenerate default everywhere else.
func (r RiskLevel) Score() int {
	switch r {
	case RiskVeryLow:
		return 1
	case RiskLow:
		return 2
	case RiskMedium:
		return 3
	case RiskHigh:
		return 4
	case RiskVeryHigh:
		return 5
	default:
		return 3
	}
}

// RiskFromScore rounds an averaged ordinal back onto the scale using fixed
// cut points (<=1.5, <=2.5, <=3.5, <=4.5).
func RiskFromScore(score float64) RiskLevel {
	switch {
	case score <= 1.5:
		return RiskVeryLow
	case score <= 2.5:
		return RiskLow
	case score <= 3.5:
		return RiskMedium
	case score <= 4.5:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// ParseRiskLevel accepts both "VERY_LOW" and "Very Low" spellings.
func ParseRiskLevel(raw string) (RiskLevel, bool) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", "_")) {
	case "VERY_LOW":
		return RiskVeryLow, true
	case "LOW":
		return RiskLow, true
	case "MEDIUM":
		return RiskMedium, true
	case "HIGH":
		return RiskHigh, true
	case "VERY_HIGH":
		return RiskVeryHigh, true
	default:
		return "", false
	}
}

// AgentType identifies a specialist agent contributing votes.
type AgentType string

const (
	AgentTechnical AgentType = "technical"
	AgentSector    AgentType = "sector"
	AgentRisk      AgentType = "risk"
	AgentML        AgentType = "ml"
	AgentPortfolio AgentType = "portfolio"
)

// KnownAgentTypes lists the specialist agents in their canonical order.
func KnownAgentTypes() []AgentType {
	return []AgentType{AgentTechnical, AgentSector, AgentRisk, AgentML, AgentPortfolio}
}
