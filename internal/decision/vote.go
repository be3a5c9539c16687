// Package decision combines specialist agent votes into a single trading
// decision. The aggregator is a pure reduction over the current vote set;
// nothing is persisted between calls.
package decision

import (
	"context"

	"paperdesk/internal/ledger"
	"paperdesk/internal/market"
	"paperdesk/internal/types"
)

// Vote is one specialist agent's recommendation for a symbol, already
// structured. Parsing model text into votes is an adapter concern and lives
// outside this package.
type Vote struct {
	AgentType           types.AgentType  `json:"agent_type"`
	Action              types.VoteAction `json:"action"`
	Confidence          float64          `json:"confidence"`
	RiskLevel           types.RiskLevel  `json:"risk_level,omitempty"`
	PositionSizePercent float64          `json:"position_size_percent,omitempty"`
	Reasoning           string           `json:"reasoning,omitempty"`
}

// Source yields the per-agent votes for one evaluation turn. An empty or
// partially failed vote set is valid input to Combine, not an error.
type Source interface {
	Poll(ctx context.Context, symbol string, snapshot market.Snapshot, state ledger.State) ([]Vote, error)
}
