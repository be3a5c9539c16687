package httpapi

// createSessionRequest opens a new trading session.
type createSessionRequest struct {
	Symbol        string  `json:"symbol" binding:"required"`
	Interval      string  `json:"interval"`
	InitialBudget float64 `json:"initial_budget"`
}

// processRequest runs one evaluation turn, optionally overriding the data
// interval for this turn only.
type processRequest struct {
	Interval string `json:"interval"`
}

// manualActionRequest executes a user-initiated trade. Exactly one of
// Quantity or Percentage should be set.
type manualActionRequest struct {
	Action     string  `json:"action" binding:"required"`
	Quantity   int64   `json:"quantity"`
	Percentage float64 `json:"percentage"`
	Price      float64 `json:"price"`
	Reason     string  `json:"reason"`
}

// autoTradeRequest starts the background auto-trade loop.
type autoTradeRequest struct {
	MaxIterations int `json:"max_iterations"`
}
