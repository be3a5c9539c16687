package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"paperdesk/internal/decision"
	"paperdesk/internal/ledger"
	"paperdesk/internal/report"
	"paperdesk/internal/session"
	"paperdesk/internal/sizing"
	"paperdesk/internal/store/decisionlog"
	"paperdesk/internal/types"
)

// Router holds the handler dependencies for the session API.
type Router struct {
	Manager    *session.Manager
	Aggregator *decision.Aggregator
	Sizer      *sizing.Sizer
	Decisions  *decisionlog.Store
}

// Register mounts the session routes on the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/sessions", r.handleCreateSession)
	group.GET("/sessions", r.handleListSessions)
	group.GET("/sessions/:id", r.handleGetSession)
	group.POST("/sessions/:id/close", r.handleCloseSession)
	group.POST("/sessions/:id/process", r.handleProcess)
	group.POST("/sessions/:id/manual", r.handleManualAction)
	group.POST("/sessions/:id/autotrade", r.handleAutoTrade)
	group.POST("/sessions/:id/decide", r.handleDecide)
	group.GET("/sessions/:id/decisions", r.handleDecisionHistory)
	group.GET("/sessions/:id/trades", r.handleTradeHistory)
	group.GET("/sessions/:id/report", r.handleReport)
}

func (r *Router) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	budget := decimal.Zero
	if req.InitialBudget > 0 {
		budget = decimal.NewFromFloat(req.InitialBudget)
	}
	coord, err := r.Manager.Create(req.Symbol, req.Interval, budget)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_id": coord.ID(),
		"symbol":     coord.Symbol(),
		"portfolio":  coord.State(),
	})
}

func (r *Router) handleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": r.Manager.List()})
}

func (r *Router) handleGetSession(c *gin.Context) {
	coord, ok := r.lookup(c)
	if !ok {
		return
	}
	resp := gin.H{
		"session_id": coord.ID(),
		"symbol":     coord.Symbol(),
		"active":     coord.Active(),
		"portfolio":  coord.State(),
	}
	if last := coord.LastDecision(); last != nil {
		resp["last_decision"] = last
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) handleCloseSession(c *gin.Context) {
	id := c.Param("id")
	if err := r.Manager.Close(c.Request.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "closed": true})
}

func (r *Router) handleProcess(c *gin.Context) {
	coord, ok := r.lookup(c)
	if !ok {
		return
	}
	var req processRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	res, err := coord.ProcessTurn(c.Request.Context(), req.Interval)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrSessionClosed) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (r *Router) handleManualAction(c *gin.Context) {
	coord, ok := r.lookup(c)
	if !ok {
		return
	}
	var req manualActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action, okAction := types.ParseAction(req.Action)
	if !okAction || action == types.ActionHold {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be BUY or SELL"})
		return
	}
	order := ledger.TradeOrder{
		Action:     action,
		Quantity:   req.Quantity,
		Percentage: req.Percentage,
		Reason:     req.Reason,
	}
	if req.Price > 0 {
		order.Price = decimal.NewFromFloat(req.Price)
	}
	exec, err := coord.ExecuteManual(c.Request.Context(), order)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, session.ErrSessionClosed):
			status = http.StatusConflict
		case errors.Is(err, ledger.ErrActionMismatch):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"execution": exec,
		"portfolio": coord.State(),
	})
}

func (r *Router) handleAutoTrade(c *gin.Context) {
	coord, ok := r.lookup(c)
	if !ok {
		return
	}
	var req autoTradeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	// Detached from the request context: the loop outlives this call and is
	// stopped by closing the session.
	if err := coord.StartAutoTrade(context.Background(), req.MaxIterations); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"session_id": coord.ID(), "auto_trade": "started"})
}

// handleDecide validates an externally submitted vote payload and returns
// the decision the aggregator would make, without executing it. Useful for
// wiring real agent pipelines against the desk.
func (r *Router) handleDecide(c *gin.Context) {
	coord, ok := r.lookup(c)
	if !ok {
		return
	}
	var req struct {
		Price float64         `json:"price"`
		Votes json.RawMessage `json:"votes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	votes, err := decision.ParseVotes(req.Votes)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	price := decimal.Zero
	if req.Price > 0 {
		price = decimal.NewFromFloat(req.Price)
	}
	d := r.Aggregator.Combine(coord.Symbol(), votes, price)
	state := coord.State()
	candidates := make([]sizing.Candidate, 0, len(votes))
	sized := false
	for _, v := range votes {
		if v.PositionSizePercent > 0 {
			sized = true
		}
		candidates = append(candidates, sizing.Candidate{Percent: v.PositionSizePercent, Confidence: v.Confidence})
	}
	if sized {
		d.PositionSizePercent = r.Sizer.Recommend(candidates, state.CashFraction())
	} else {
		// No vote suggested a size: derive one from the combined confidence
		// and risk level instead of averaging defaults.
		d.PositionSizePercent = r.Sizer.ConfidenceSize(d.Confidence, d.RiskLevel)
	}
	c.JSON(http.StatusOK, gin.H{"decision": d})
}

func (r *Router) handleDecisionHistory(c *gin.Context) {
	coord, ok := r.lookup(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if r.Decisions != nil {
		recs, err := r.Decisions.List(c.Request.Context(), decisionlog.Query{
			SessionID: coord.ID(),
			Limit:     limit,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"decisions": recs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": coord.Decisions()})
}

func (r *Router) handleTradeHistory(c *gin.Context) {
	coord, ok := r.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": coord.Trades()})
}

func (r *Router) handleReport(c *gin.Context) {
	coord, ok := r.lookup(c)
	if !ok {
		return
	}
	in := report.Input{
		SessionID: coord.ID(),
		Symbol:    coord.Symbol(),
		State:     coord.State(),
		Decisions: coord.Decisions(),
		Trades:    coord.Trades(),
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.Render(c.Writer, in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	}
}

func (r *Router) lookup(c *gin.Context) (*session.Coordinator, bool) {
	id := strings.TrimSpace(c.Param("id"))
	coord, err := r.Manager.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return coord, true
}
