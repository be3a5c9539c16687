package ledger

import "github.com/shopspring/decimal"

// Position is one symbol's open holding. It exists only while Quantity > 0;
// a sell that empties it removes it from the ledger entirely, so a later buy
// starts a fresh cost basis.
type Position struct {
	Symbol      string
	Quantity    int64
	AverageCost decimal.Decimal
	LastPrice   decimal.Decimal
}

// CurrentValue is Quantity * LastPrice.
func (p *Position) CurrentValue() decimal.Decimal {
	return p.LastPrice.Mul(decimal.NewFromInt(p.Quantity))
}

// CostBasis is Quantity * AverageCost.
func (p *Position) CostBasis() decimal.Decimal {
	return p.AverageCost.Mul(decimal.NewFromInt(p.Quantity))
}

// UnrealizedPnL is the mark-to-market gain against the open cost basis.
func (p *Position) UnrealizedPnL() decimal.Decimal {
	return p.CurrentValue().Sub(p.CostBasis())
}

// PositionView is the read-only projection returned by State, with every
// derived field populated.
type PositionView struct {
	Symbol               string          `json:"symbol"`
	Quantity             int64           `json:"quantity"`
	AverageCost          decimal.Decimal `json:"average_cost"`
	LastPrice            decimal.Decimal `json:"last_price"`
	CurrentValue         decimal.Decimal `json:"current_value"`
	UnrealizedPnL        decimal.Decimal `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64         `json:"unrealized_pnl_percent"`
	PercentOfPortfolio   float64         `json:"percent_of_portfolio"`
}

func (p *Position) view(totalValue decimal.Decimal) PositionView {
	v := PositionView{
		Symbol:        p.Symbol,
		Quantity:      p.Quantity,
		AverageCost:   p.AverageCost,
		LastPrice:     p.LastPrice,
		CurrentValue:  p.CurrentValue(),
		UnrealizedPnL: p.UnrealizedPnL(),
	}
	if basis := p.CostBasis(); basis.IsPositive() {
		v.UnrealizedPnLPercent, _ = v.UnrealizedPnL.Div(basis).Mul(decimal.NewFromInt(100)).Float64()
	}
	if totalValue.IsPositive() {
		v.PercentOfPortfolio, _ = v.CurrentValue.Div(totalValue).Mul(decimal.NewFromInt(100)).Float64()
	}
	return v
}
