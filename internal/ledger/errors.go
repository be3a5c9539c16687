package ledger

import "errors"

// Reason tags an expected business rejection. Rejected orders are normal
// returned results, never errors; callers must check Verdict/ExecResult
// before assuming state changed.
type Reason string

const (
	ReasonInvalidPrice       Reason = "INVALID_PRICE"
	ReasonInsufficientCash   Reason = "INSUFFICIENT_CASH"
	ReasonPositionTooSmall   Reason = "POSITION_TOO_SMALL"
	ReasonPositionTooLarge   Reason = "POSITION_TOO_LARGE"
	ReasonNoHolding          Reason = "NO_HOLDING"
	ReasonInsufficientShares Reason = "INSUFFICIENT_SHARES"
	ReasonMissingQuantity    Reason = "MISSING_QUANTITY"
)

// Contract violations. These indicate a caller bug, not a market condition,
// and are surfaced as real errors.
var (
	ErrActionMismatch = errors.New("ledger: order action does not match operation")
	ErrInvalidPrice   = errors.New("ledger: price must be positive")
)

// Verdict is the outcome of a pure pre-trade check.
type Verdict struct {
	OK      bool   `json:"ok"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

func allow() Verdict {
	return Verdict{OK: true, Message: "OK"}
}

func deny(reason Reason, message string) Verdict {
	return Verdict{Reason: reason, Message: message}
}
