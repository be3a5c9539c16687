package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"paperdesk/internal/logger"
	"paperdesk/internal/types"
)

var hundred = decimal.NewFromInt(100)

// Limits bound a single position's share of total portfolio value,
// expressed as fractions (0.05 = 5%).
type Limits struct {
	MinPositionSize float64
	MaxPositionSize float64
}

// DefaultLimits mirror the stock configuration: 5% minimum, 30% maximum.
func DefaultLimits() Limits {
	return Limits{MinPositionSize: 0.05, MaxPositionSize: 0.30}
}

// Ledger is the sole owner of one session's cash and positions. It is not
// safe for concurrent use; the session coordinator serializes access.
type Ledger struct {
	initialBudget decimal.Decimal
	availableCash decimal.Decimal
	positions     map[string]*Position
	realizedPnL   decimal.Decimal
	trades        []TradeRecord
	limits        Limits
}

// New creates a ledger with the full budget as available cash.
func New(initialBudget decimal.Decimal, limits Limits) *Ledger {
	return &Ledger{
		initialBudget: initialBudget,
		availableCash: initialBudget,
		positions:     make(map[string]*Position),
		limits:        limits,
	}
}

// State is the full read-only snapshot of a ledger. TotalValue is always
// recomputed here, never cached across mutations.
type State struct {
	InitialBudget      decimal.Decimal         `json:"initial_budget"`
	AvailableCash      decimal.Decimal         `json:"available_cash"`
	TotalValue         decimal.Decimal         `json:"total_value"`
	Positions          map[string]PositionView `json:"positions"`
	RealizedPnL        decimal.Decimal         `json:"realized_pnl"`
	RealizedPnLPercent float64                 `json:"realized_pnl_percent"`
}

// CashFraction is available cash as a fraction of total value (0..1).
func (s State) CashFraction() float64 {
	if !s.TotalValue.IsPositive() {
		return 1
	}
	f, _ := s.AvailableCash.Div(s.TotalValue).Float64()
	return f
}

func (l *Ledger) totalValue() decimal.Decimal {
	total := l.availableCash
	for _, p := range l.positions {
		total = total.Add(p.CurrentValue())
	}
	return total
}

// State returns the current portfolio snapshot. Pure read, safe at any
// point in the ledger's life, including before the first trade.
func (l *Ledger) State() State {
	total := l.totalValue()
	views := make(map[string]PositionView, len(l.positions))
	for sym, p := range l.positions {
		views[sym] = p.view(total)
	}
	st := State{
		InitialBudget: l.initialBudget,
		AvailableCash: l.availableCash,
		TotalValue:    total,
		Positions:     views,
		RealizedPnL:   l.realizedPnL,
	}
	if invested := l.initialBudget.Sub(l.availableCash); invested.IsPositive() {
		st.RealizedPnLPercent, _ = l.realizedPnL.Div(invested).Mul(hundred).Float64()
	}
	return st
}

// Trades returns a copy of the immutable trade history, oldest first.
func (l *Ledger) Trades() []TradeRecord {
	out := make([]TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

// Symbols lists held symbols in sorted order.
func (l *Ledger) Symbols() []string {
	out := make([]string, 0, len(l.positions))
	for sym := range l.positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// UpdatePrice marks a held position to the latest observed price. Unknown
// symbols are a no-op; a non-positive price is a caller bug.
func (l *Ledger) UpdatePrice(symbol string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	p, ok := l.positions[symbol]
	if !ok {
		return nil
	}
	p.LastPrice = price
	logger.Debugf("ledger: %s marked to %s, unrealized %s", symbol, price, p.UnrealizedPnL())
	return nil
}

// CanBuy checks price, affordability, and position-size bounds, in that
// order. Pure query; no mutation.
func (l *Ledger) CanBuy(symbol string, quantity int64, price decimal.Decimal) Verdict {
	if !price.IsPositive() {
		return deny(ReasonInvalidPrice, "price must be positive")
	}
	cost := price.Mul(decimal.NewFromInt(quantity))
	if cost.GreaterThan(l.availableCash) {
		return deny(ReasonInsufficientCash,
			fmt.Sprintf("insufficient cash: need %s, have %s", cost.StringFixed(2), l.availableCash.StringFixed(2)))
	}

	// A buy swaps cash for stock at the purchase price, so projected total
	// value equals the current total.
	total := l.totalValue()
	if !total.IsPositive() {
		return deny(ReasonInvalidPrice, "portfolio has no value")
	}
	resulting := cost
	if p, ok := l.positions[symbol]; ok {
		resulting = resulting.Add(p.CurrentValue())
	}
	share, _ := resulting.Div(total).Float64()
	if share > l.limits.MaxPositionSize {
		return deny(ReasonPositionTooLarge,
			fmt.Sprintf("position too large: %.1f%% exceeds %.0f%% limit", share*100, l.limits.MaxPositionSize*100))
	}
	if share < l.limits.MinPositionSize {
		return deny(ReasonPositionTooSmall,
			fmt.Sprintf("position too small: %.1f%% below %.0f%% minimum", share*100, l.limits.MinPositionSize*100))
	}
	return allow()
}

// CanSell checks that the symbol is held and covers the quantity.
func (l *Ledger) CanSell(symbol string, quantity int64) Verdict {
	p, ok := l.positions[symbol]
	if !ok {
		return deny(ReasonNoHolding, fmt.Sprintf("no holdings in %s", symbol))
	}
	if quantity > p.Quantity {
		return deny(ReasonInsufficientShares,
			fmt.Sprintf("insufficient shares: need %d, have %d", quantity, p.Quantity))
	}
	return allow()
}

// ExecuteBuy resolves the order's share count, validates it, and applies it
// atomically: a rejected order leaves cash and positions untouched.
func (l *Ledger) ExecuteBuy(order TradeOrder) (ExecResult, error) {
	if order.Action != types.ActionBuy {
		return ExecResult{}, ErrActionMismatch
	}
	price := l.resolvePrice(order)
	if !price.IsPositive() {
		return rejected(ReasonInvalidPrice, "invalid price for buy order"), nil
	}

	quantity := order.Quantity
	if quantity <= 0 && order.Percentage > 0 {
		spend := l.availableCash.Mul(decimal.NewFromFloat(order.Percentage)).Div(hundred)
		quantity = spend.Div(price).IntPart()
	}
	if quantity <= 0 {
		return rejected(ReasonMissingQuantity, "must specify a quantity or a percentage resolving to at least one share"), nil
	}

	if v := l.CanBuy(order.Symbol, quantity, price); !v.OK {
		return rejected(v.Reason, v.Message), nil
	}

	cost := price.Mul(decimal.NewFromInt(quantity))
	l.availableCash = l.availableCash.Sub(cost)

	if p, ok := l.positions[order.Symbol]; ok {
		// Weighted-average cost basis across partial buys. Decimal math here
		// keeps the basis exact over long scale-in sequences.
		oldQty := decimal.NewFromInt(p.Quantity)
		newQty := decimal.NewFromInt(p.Quantity + quantity)
		p.AverageCost = p.AverageCost.Mul(oldQty).Add(cost).Div(newQty)
		p.Quantity += quantity
		p.LastPrice = price
	} else {
		l.positions[order.Symbol] = &Position{
			Symbol:      order.Symbol,
			Quantity:    quantity,
			AverageCost: price,
			LastPrice:   price,
		}
	}

	l.appendTrade(order, quantity, price, cost, decimal.Zero)
	msg := fmt.Sprintf("bought %d %s at %s, total cost %s", quantity, order.Symbol, price.StringFixed(2), cost.StringFixed(2))
	logger.Infof("ledger: %s", msg)
	return ExecResult{OK: true, Message: msg, Quantity: quantity, Price: price}, nil
}

// ExecuteSell resolves the share count, validates it, books realized P&L,
// and removes the position outright when it empties.
func (l *Ledger) ExecuteSell(order TradeOrder) (ExecResult, error) {
	if order.Action != types.ActionSell {
		return ExecResult{}, ErrActionMismatch
	}
	price := l.resolvePrice(order)
	if !price.IsPositive() {
		return rejected(ReasonInvalidPrice, "invalid price for sell order"), nil
	}

	p, ok := l.positions[order.Symbol]
	if !ok {
		return rejected(ReasonNoHolding, fmt.Sprintf("no holdings in %s", order.Symbol)), nil
	}

	quantity := order.Quantity
	if quantity <= 0 && order.Percentage > 0 {
		quantity = decimal.NewFromInt(p.Quantity).Mul(decimal.NewFromFloat(order.Percentage)).Div(hundred).IntPart()
	}
	if quantity <= 0 {
		return rejected(ReasonMissingQuantity, "must specify a quantity or a percentage resolving to at least one share"), nil
	}

	if v := l.CanSell(order.Symbol, quantity); !v.OK {
		return rejected(v.Reason, v.Message), nil
	}

	proceeds := price.Mul(decimal.NewFromInt(quantity))
	costBasis := p.AverageCost.Mul(decimal.NewFromInt(quantity))
	realized := proceeds.Sub(costBasis)

	l.realizedPnL = l.realizedPnL.Add(realized)
	l.availableCash = l.availableCash.Add(proceeds)
	p.Quantity -= quantity
	p.LastPrice = price
	if p.Quantity == 0 {
		// Basis is discarded with the position; a re-entry starts fresh.
		delete(l.positions, order.Symbol)
	}

	l.appendTrade(order, quantity, price, proceeds, realized)
	msg := fmt.Sprintf("sold %d %s at %s, proceeds %s, realized P&L %s",
		quantity, order.Symbol, price.StringFixed(2), proceeds.StringFixed(2), realized.StringFixed(2))
	logger.Infof("ledger: %s", msg)
	return ExecResult{OK: true, Message: msg, Quantity: quantity, Price: price, RealizedPnL: realized}, nil
}

func (l *Ledger) resolvePrice(order TradeOrder) decimal.Decimal {
	if order.Price.IsPositive() {
		return order.Price
	}
	if p, ok := l.positions[order.Symbol]; ok {
		return p.LastPrice
	}
	return decimal.Zero
}

func (l *Ledger) appendTrade(order TradeOrder, quantity int64, price, notional, realized decimal.Decimal) {
	l.trades = append(l.trades, TradeRecord{
		Action:      order.Action,
		Symbol:      order.Symbol,
		Quantity:    quantity,
		Price:       price,
		Notional:    notional,
		RealizedPnL: realized,
		Reason:      order.Reason,
		Confidence:  order.Confidence,
		ExecutedAt:  time.Now(),
	})
}
