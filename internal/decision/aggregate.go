package decision

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"paperdesk/internal/sizing"
	"paperdesk/internal/types"
)

// Config carries the aggregation tuning. The buy/sell vote weights are a
// deliberate asymmetry favoring directional signals over pure confidence
// averaging; they ship as configuration, not as inferred intent.
type Config struct {
	BuyVoteWeight  float64
	SellVoteWeight float64
	HoldVoteWeight float64
	BuyThreshold   float64
	SellThreshold  float64
	Risk           sizing.RiskConfig
}

// DefaultConfig mirrors the stock tuning: buy votes count 1.2x, sell votes
// 1.1x, buy needs 70 weighted confidence, sell needs 60.
func DefaultConfig() Config {
	return Config{
		BuyVoteWeight:  1.2,
		SellVoteWeight: 1.1,
		HoldVoteWeight: 1.0,
		BuyThreshold:   70,
		SellThreshold:  60,
		Risk:           sizing.DefaultRiskConfig(),
	}
}

// WeightFunc returns the tally weight for one agent's vote. The default
// weighs every agent equally.
type WeightFunc func(types.AgentType) float64

// Aggregator reduces a vote set to one Decision.
type Aggregator struct {
	cfg     Config
	weights WeightFunc
}

func NewAggregator(cfg Config, weights WeightFunc) *Aggregator {
	if weights == nil {
		weights = func(types.AgentType) float64 { return 1 }
	}
	return &Aggregator{cfg: cfg, weights: weights}
}

// Decision is the aggregator's immutable output for one evaluation turn.
// PositionSizePercent is filled in by the session coordinator, which knows
// the portfolio's cash fraction.
type Decision struct {
	Symbol              string           `json:"symbol"`
	FinalAction         types.Action     `json:"final_action"`
	Confidence          float64          `json:"confidence"`
	PositionSizePercent float64          `json:"position_size_percent"`
	RiskLevel           types.RiskLevel  `json:"risk_level"`
	StopLoss            *decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit          *decimal.Decimal `json:"take_profit,omitempty"`
	NextPollInterval    string           `json:"next_poll_interval"`
	Reasoning           string           `json:"reasoning"`
	Votes               []Vote           `json:"votes,omitempty"`
	DecidedAt           time.Time        `json:"decided_at"`
}

// Combine tallies votes into buy/sell/hold buckets, weighs confidence, and
// gates the majority action behind its per-action threshold. An empty vote
// set yields the designated degenerate HOLD decision. price may be zero
// when the market snapshot failed; stop/target are then omitted.
func (a *Aggregator) Combine(symbol string, votes []Vote, price decimal.Decimal) Decision {
	d := Decision{
		Symbol:           symbol,
		FinalAction:      types.ActionHold,
		RiskLevel:        types.RiskMedium,
		NextPollInterval: "1hour",
		Votes:            votes,
		DecidedAt:        time.Now(),
	}
	if len(votes) == 0 {
		d.Reasoning = "no agent votes available"
		return d
	}

	var buyWeight, sellWeight, holdWeight float64
	var weightedConfidence, confidenceWeight, totalWeight float64
	var riskScore float64
	for _, v := range votes {
		w := a.weights(v.AgentType)
		if w <= 0 {
			continue
		}
		switch v.Action.Bucket() {
		case types.ActionBuy:
			buyWeight += w
			weightedConfidence += v.Confidence * a.cfg.BuyVoteWeight * w
			confidenceWeight += a.cfg.BuyVoteWeight * w
		case types.ActionSell:
			sellWeight += w
			weightedConfidence += v.Confidence * a.cfg.SellVoteWeight * w
			confidenceWeight += a.cfg.SellVoteWeight * w
		default:
			holdWeight += w
			weightedConfidence += v.Confidence * a.cfg.HoldVoteWeight * w
			confidenceWeight += a.cfg.HoldVoteWeight * w
		}
		riskScore += float64(v.RiskLevel.Score()) * w
		totalWeight += w
	}
	if totalWeight == 0 || confidenceWeight == 0 {
		d.Reasoning = "all agent votes carried zero weight"
		return d
	}

	avgConfidence := weightedConfidence / confidenceWeight
	d.Confidence = avgConfidence
	d.RiskLevel = types.RiskFromScore(riskScore / totalWeight)

	// Majority bucket wins; ties favor HOLD. The winner still has to clear
	// its confidence threshold or the turn degrades to HOLD.
	switch {
	case buyWeight > sellWeight && buyWeight > holdWeight:
		if avgConfidence >= a.cfg.BuyThreshold {
			d.FinalAction = types.ActionBuy
		}
	case sellWeight > buyWeight && sellWeight > holdWeight:
		if avgConfidence >= a.cfg.SellThreshold {
			d.FinalAction = types.ActionSell
		}
	}

	if d.FinalAction != types.ActionHold && price.IsPositive() {
		stop, target := sizing.RiskAdjustedLevels(a.cfg.Risk, price, d.RiskLevel)
		d.StopLoss = &stop
		d.TakeProfit = &target
	}
	d.NextPollInterval = nextPollInterval(d.FinalAction, avgConfidence)
	d.Reasoning = reasoning(votes, d.FinalAction, avgConfidence)
	return d
}

// nextPollInterval picks the re-evaluation cadence: committed directional
// positions are monitored hourly, high-confidence turns poll fast, and
// low-confidence turns back off.
func nextPollInterval(action types.Action, confidence float64) string {
	switch {
	case action == types.ActionBuy && confidence > 80:
		return "1hour"
	case action == types.ActionSell && confidence > 80:
		return "1hour"
	case confidence > 70:
		return "5min"
	case confidence > 50:
		return "15min"
	default:
		return "1hour"
	}
}

func reasoning(votes []Vote, action types.Action, confidence float64) string {
	parts := make([]string, 0, len(votes)+1)
	parts = append(parts, fmt.Sprintf("Final decision: %s with %.1f%% confidence", action, confidence))
	for _, v := range votes {
		parts = append(parts, fmt.Sprintf("%s: %s (%.1f%%)", v.AgentType, v.Action, v.Confidence))
	}
	return strings.Join(parts, "\n")
}
