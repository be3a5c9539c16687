// Package session drives the evaluate-decide-execute turn for one symbol.
// Each coordinator owns a ledger and serializes every turn behind its own
// mutex, so many sessions can run concurrently while a single session never
// sees two turns in flight.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"paperdesk/internal/decision"
	"paperdesk/internal/ledger"
	"paperdesk/internal/logger"
	"paperdesk/internal/market"
	"paperdesk/internal/scheduler"
	"paperdesk/internal/sizing"
	"paperdesk/internal/store/decisionlog"
	"paperdesk/internal/store/gormstore"
	"paperdesk/internal/store/model"
	"paperdesk/internal/types"
)

// Config carries the per-session tuning.
type Config struct {
	InitialBudget     decimal.Decimal
	DefaultInterval   string
	ExecuteThreshold  float64 // minimum decision confidence to act on BUY/SELL
	MaxAutoIterations int
	Limits            ledger.Limits
}

// DefaultConfig mirrors the stock tuning: 100000 budget, 5min data interval,
// execute at confidence 70, ten auto-trade turns.
func DefaultConfig() Config {
	return Config{
		InitialBudget:     decimal.NewFromInt(100000),
		DefaultInterval:   "5min",
		ExecuteThreshold:  70,
		MaxAutoIterations: 10,
		Limits:            ledger.DefaultLimits(),
	}
}

// Deps are the collaborators shared by every coordinator. The two stores may
// be nil, which turns persistence into a no-op (in-memory sessions only).
type Deps struct {
	Market     market.Source
	Votes      decision.Source
	Aggregator *decision.Aggregator
	Sizer      *sizing.Sizer
	Sessions   *gormstore.Store
	Decisions  *decisionlog.Store
}

// TurnResult reports one completed evaluate-decide-execute turn.
type TurnResult struct {
	SessionID string             `json:"session_id"`
	Symbol    string             `json:"symbol"`
	Interval  string             `json:"interval"`
	Decision  decision.Decision  `json:"decision"`
	Executed  bool               `json:"executed"`
	Execution *ledger.ExecResult `json:"execution,omitempty"`
	Portfolio ledger.State       `json:"portfolio"`
	Note      string             `json:"note,omitempty"`
}

// Coordinator is one live trading session.
type Coordinator struct {
	id      string
	symbol  string
	cfg     Config
	deps    Deps
	created time.Time

	mu           sync.Mutex
	ledger       *ledger.Ledger
	interval     string
	lastDecision *decision.Decision
	decisions    []decision.Decision
	turns        int
	active       bool
	autoCancel   context.CancelFunc
}

func newCoordinator(id, symbol string, cfg Config, deps Deps) *Coordinator {
	return &Coordinator{
		id:       id,
		symbol:   symbol,
		cfg:      cfg,
		deps:     deps,
		created:  time.Now(),
		ledger:   ledger.New(cfg.InitialBudget, cfg.Limits),
		interval: cfg.DefaultInterval,
		active:   true,
	}
}

// ID returns the session id.
func (c *Coordinator) ID() string { return c.id }

// Symbol returns the traded symbol.
func (c *Coordinator) Symbol() string { return c.symbol }

// State returns the current portfolio snapshot.
func (c *Coordinator) State() ledger.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.State()
}

// Trades returns the in-memory trade history, oldest first.
func (c *Coordinator) Trades() []ledger.TradeRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Trades()
}

// Decisions returns the in-memory decision history, oldest first.
func (c *Coordinator) Decisions() []decision.Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]decision.Decision, len(c.decisions))
	copy(out, c.decisions)
	return out
}

// LastDecision returns the most recent decision, or nil before any turn.
func (c *Coordinator) LastDecision() *decision.Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastDecision == nil {
		return nil
	}
	d := *c.lastDecision
	return &d
}

// Active reports whether the session still accepts turns.
func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// ProcessTurn runs one full turn: fetch market data, mark the position to
// the fetched price, poll the specialist votes, aggregate, size, and execute
// when the decision clears the confidence gate. A failed market fetch does
// not fail the turn; it degrades to a HOLD decision with HIGH risk so the
// caller still gets a poll cadence.
func (c *Coordinator) ProcessTurn(ctx context.Context, interval string) (TurnResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return TurnResult{}, ErrSessionClosed
	}
	if !scheduler.IsValidInterval(interval) {
		interval = c.interval
	}
	c.interval = interval
	c.turns++

	res := TurnResult{SessionID: c.id, Symbol: c.symbol, Interval: interval}

	snap, err := c.deps.Market.Fetch(ctx, c.symbol, interval)
	if err != nil {
		logger.Warnf("session %s: market fetch failed: %v", c.id, err)
		d := errorDecision(c.symbol, err)
		c.recordDecision(ctx, d, false)
		res.Decision = d
		res.Portfolio = c.ledger.State()
		res.Note = fmt.Sprintf("market data unavailable: %v", err)
		c.persistSession(ctx)
		return res, nil
	}

	if err := c.ledger.UpdatePrice(c.symbol, snap.Price); err != nil {
		// Fetch guarantees a positive price, so this is a source bug.
		return TurnResult{}, fmt.Errorf("session %s: %w", c.id, err)
	}
	state := c.ledger.State()

	votes, err := c.deps.Votes.Poll(ctx, c.symbol, snap, state)
	if err != nil {
		// A failed vote poll degrades to the degenerate empty-vote decision.
		logger.Warnf("session %s: vote poll failed: %v", c.id, err)
		votes = nil
	}

	d := c.deps.Aggregator.Combine(c.symbol, votes, snap.Price)
	d.PositionSizePercent = c.deps.Sizer.Recommend(sizeCandidates(votes), state.CashFraction())

	if d.FinalAction != types.ActionHold && d.Confidence >= c.cfg.ExecuteThreshold {
		exec, err := c.execute(d, snap.Price)
		if err != nil {
			return TurnResult{}, err
		}
		res.Execution = &exec
		res.Executed = exec.OK
		if !exec.OK {
			logger.Infof("session %s: %s rejected: %s", c.id, d.FinalAction, exec.Message)
		}
	}

	c.recordDecision(ctx, d, res.Executed)
	c.persistSession(ctx)

	res.Decision = d
	res.Portfolio = c.ledger.State()
	return res, nil
}

// ExecuteManual applies a user-initiated BUY/SELL directly against the
// ledger, bypassing the aggregator. The order must carry a quantity or a
// percentage; the price falls back to the position's last mark when omitted.
func (c *Coordinator) ExecuteManual(ctx context.Context, order ledger.TradeOrder) (ledger.ExecResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ledger.ExecResult{}, ErrSessionClosed
	}
	order.Symbol = c.symbol
	if order.Reason == "" {
		order.Reason = fmt.Sprintf("manual %s action", order.Action)
	}
	if order.Confidence == 0 {
		order.Confidence = 100
	}

	var (
		exec ledger.ExecResult
		err  error
	)
	switch order.Action {
	case types.ActionBuy:
		exec, err = c.ledger.ExecuteBuy(order)
	case types.ActionSell:
		exec, err = c.ledger.ExecuteSell(order)
	default:
		return ledger.ExecResult{}, fmt.Errorf("%w: manual action must be BUY or SELL", ledger.ErrActionMismatch)
	}
	if err != nil {
		return ledger.ExecResult{}, err
	}
	if exec.OK {
		c.persistLastTrade(ctx)
	}
	c.persistSession(ctx)
	return exec, nil
}

func (c *Coordinator) execute(d decision.Decision, price decimal.Decimal) (ledger.ExecResult, error) {
	order := ledger.TradeOrder{
		Action:     d.FinalAction,
		Symbol:     d.Symbol,
		Percentage: d.PositionSizePercent,
		Price:      price,
		Reason:     firstLine(d.Reasoning),
		Confidence: d.Confidence,
	}
	if d.StopLoss != nil {
		order.StopLoss = *d.StopLoss
	}
	if d.TakeProfit != nil {
		order.TakeProfit = *d.TakeProfit
	}

	var (
		exec ledger.ExecResult
		err  error
	)
	switch d.FinalAction {
	case types.ActionBuy:
		exec, err = c.ledger.ExecuteBuy(order)
	case types.ActionSell:
		exec, err = c.ledger.ExecuteSell(order)
	}
	if err != nil {
		return ledger.ExecResult{}, err
	}
	if exec.OK {
		c.persistLastTrade(context.Background())
	}
	return exec, nil
}

func (c *Coordinator) recordDecision(ctx context.Context, d decision.Decision, executed bool) {
	c.lastDecision = &d
	c.decisions = append(c.decisions, d)
	if c.deps.Decisions == nil {
		return
	}
	rec := decisionlog.Record{
		SessionID: c.id,
		Symbol:    c.symbol,
		Timestamp: d.DecidedAt.UnixMilli(),
		Executed:  executed,
		Decision:  d,
	}
	if err := c.deps.Decisions.Append(ctx, rec); err != nil {
		logger.Errorf("session %s: decision log append failed: %v", c.id, err)
	}
}

func (c *Coordinator) persistSession(ctx context.Context) {
	if c.deps.Sessions == nil {
		return
	}
	status := model.SessionStatusActive
	if !c.active {
		status = model.SessionStatusClosed
	}
	rec := gormstore.SessionRecord{
		SessionID:     c.id,
		Symbol:        c.symbol,
		Interval:      c.interval,
		InitialBudget: c.cfg.InitialBudget,
		Status:        status,
		State:         c.ledger.State(),
		CreatedAt:     c.created,
	}
	if err := c.deps.Sessions.SaveSession(ctx, rec); err != nil {
		logger.Errorf("session %s: save failed: %v", c.id, err)
	}
}

func (c *Coordinator) persistLastTrade(ctx context.Context) {
	if c.deps.Sessions == nil {
		return
	}
	trades := c.ledger.Trades()
	if len(trades) == 0 {
		return
	}
	if err := c.deps.Sessions.AppendTrade(ctx, c.id, trades[len(trades)-1]); err != nil {
		logger.Errorf("session %s: trade append failed: %v", c.id, err)
	}
}

// errorDecision is the degraded turn outcome when market data is missing:
// hold, zero confidence, elevated risk, slow poll.
func errorDecision(symbol string, cause error) decision.Decision {
	return decision.Decision{
		Symbol:           symbol,
		FinalAction:      types.ActionHold,
		Confidence:       0,
		RiskLevel:        types.RiskHigh,
		NextPollInterval: scheduler.DefaultInterval,
		Reasoning:        fmt.Sprintf("market data unavailable: %v", cause),
		DecidedAt:        time.Now(),
	}
}

func sizeCandidates(votes []decision.Vote) []sizing.Candidate {
	out := make([]sizing.Candidate, 0, len(votes))
	for _, v := range votes {
		out = append(out, sizing.Candidate{Percent: v.PositionSizePercent, Confidence: v.Confidence})
	}
	return out
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
