// Package model holds the gorm table models shared by the stores.
package model

import "gorm.io/datatypes"

type SessionStatus int

const (
	SessionStatusUnknown SessionStatus = 0
	SessionStatusActive  SessionStatus = 1
	SessionStatusClosed  SessionStatus = 2
)

// SessionModel persists one trading session plus its latest ledger state.
// StateJSON is a full ledger.State snapshot refreshed after every turn.
type SessionModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	SessionID     string         `gorm:"column:session_id;uniqueIndex"`
	Symbol        string         `gorm:"column:symbol;index"`
	Interval      string         `gorm:"column:interval"`
	InitialBudget string         `gorm:"column:initial_budget"`
	Status        SessionStatus  `gorm:"column:status;index"`
	StateJSON     datatypes.JSON `gorm:"column:state_json;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
	UpdatedAtUnix int64          `gorm:"column:updated_at"`
}

func (SessionModel) TableName() string { return "sessions" }

// TradeModel is one executed trade, append-only.
type TradeModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	SessionID     string  `gorm:"column:session_id;index"`
	Symbol        string  `gorm:"column:symbol;index"`
	Action        string  `gorm:"column:action"`
	Quantity      int64   `gorm:"column:quantity"`
	Price         string  `gorm:"column:price"`
	Notional      string  `gorm:"column:notional"`
	RealizedPnL   string  `gorm:"column:realized_pnl"`
	Reason        string  `gorm:"column:reason"`
	Confidence    float64 `gorm:"column:confidence"`
	ExecutedAtMs  int64   `gorm:"column:executed_at"`
	CreatedAtUnix int64   `gorm:"column:created_at"`
}

func (TradeModel) TableName() string { return "trades" }
