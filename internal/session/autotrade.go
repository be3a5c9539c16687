package session

import (
	"context"
	"errors"
	"fmt"

	"paperdesk/internal/logger"
	"paperdesk/internal/scheduler"
)

// AutoTradeResult summarizes a completed auto-trade run.
type AutoTradeResult struct {
	SessionID  string       `json:"session_id"`
	Iterations int          `json:"iterations"`
	Turns      []TurnResult `json:"turns"`
	Stopped    string       `json:"stopped,omitempty"`
}

// AutoTrade runs up to maxIterations turns back to back, sleeping between
// turns for the decision's next-poll interval. It stops early when the
// session is closed or the context is cancelled. Blocking call; use
// StartAutoTrade for fire-and-forget.
func (c *Coordinator) AutoTrade(ctx context.Context, maxIterations int) (AutoTradeResult, error) {
	if maxIterations <= 0 {
		maxIterations = c.cfg.MaxAutoIterations
	}
	res := AutoTradeResult{SessionID: c.id}

	interval := "" // first turn uses the session's data interval
	for i := 0; i < maxIterations; i++ {
		turn, err := c.ProcessTurn(ctx, interval)
		if err != nil {
			if errors.Is(err, ErrSessionClosed) {
				res.Stopped = "session closed"
				return res, nil
			}
			return res, err
		}
		res.Iterations++
		res.Turns = append(res.Turns, turn)

		// The decision's cadence becomes the next data interval, same as a
		// caller chaining "process next interval" requests.
		interval = turn.Decision.NextPollInterval

		if i == maxIterations-1 {
			break
		}
		if err := scheduler.Wait(ctx, interval); err != nil {
			res.Stopped = "context cancelled"
			return res, nil
		}
	}
	return res, nil
}

// StartAutoTrade launches AutoTrade in the background. Only one loop may run
// per session; Close cancels it.
func (c *Coordinator) StartAutoTrade(ctx context.Context, maxIterations int) error {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.autoCancel != nil {
		c.mu.Unlock()
		return fmt.Errorf("auto-trade already running for session %s", c.id)
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.autoCancel = cancel
	c.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			c.mu.Lock()
			c.autoCancel = nil
			c.mu.Unlock()
		}()
		res, err := c.AutoTrade(runCtx, maxIterations)
		if err != nil {
			logger.Errorf("session %s: auto-trade aborted: %v", c.id, err)
			return
		}
		logger.Infof("session %s: auto-trade finished after %d turns (%s)", c.id, res.Iterations, res.Stopped)
	}()
	return nil
}
