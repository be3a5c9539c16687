package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"paperdesk/internal/types"
)

// TradeOrder is the ephemeral input to ExecuteBuy/ExecuteSell. Exactly one
// of Quantity or Percentage should be set; Quantity wins when both are.
// Percentage is of available cash for buys and of held shares for sells.
type TradeOrder struct {
	Action     types.Action    `json:"action"`
	Symbol     string          `json:"symbol"`
	Quantity   int64           `json:"quantity,omitempty"`
	Percentage float64         `json:"percentage,omitempty"`
	Price      decimal.Decimal `json:"price,omitempty"`
	StopLoss   decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit decimal.Decimal `json:"take_profit,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
}

// TradeRecord is the immutable trade-history entry appended on every
// successful execution.
type TradeRecord struct {
	Action      types.Action    `json:"action"`
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Notional    decimal.Decimal `json:"notional"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	Reason      string          `json:"reason,omitempty"`
	Confidence  float64         `json:"confidence,omitempty"`
	ExecutedAt  time.Time       `json:"executed_at"`
}

// ExecResult reports the outcome of one buy/sell execution. A rejected
// order carries the Reason and leaves the ledger untouched.
type ExecResult struct {
	OK          bool            `json:"ok"`
	Reason      Reason          `json:"reason,omitempty"`
	Message     string          `json:"message"`
	Quantity    int64           `json:"quantity,omitempty"`
	Price       decimal.Decimal `json:"price,omitempty"`
	RealizedPnL decimal.Decimal `json:"realized_pnl,omitempty"`
}

func rejected(reason Reason, message string) ExecResult {
	return ExecResult{Reason: reason, Message: message}
}
