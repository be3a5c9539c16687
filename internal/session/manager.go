package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paperdesk/internal/logger"
	"paperdesk/internal/scheduler"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session is closed")
)

// Summary is the list-view projection of a session.
type Summary struct {
	SessionID string    `json:"session_id"`
	Symbol    string    `json:"symbol"`
	Interval  string    `json:"interval"`
	Active    bool      `json:"active"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager owns the live coordinators, keyed by session id. All sessions
// share the same collaborators; each gets its own ledger.
type Manager struct {
	cfg  Config
	deps Deps

	mu       sync.RWMutex
	sessions map[string]*Coordinator
}

func NewManager(cfg Config, deps Deps) *Manager {
	if !cfg.InitialBudget.IsPositive() {
		cfg.InitialBudget = DefaultConfig().InitialBudget
	}
	if !scheduler.IsValidInterval(cfg.DefaultInterval) {
		cfg.DefaultInterval = DefaultConfig().DefaultInterval
	}
	if cfg.ExecuteThreshold <= 0 {
		cfg.ExecuteThreshold = DefaultConfig().ExecuteThreshold
	}
	if cfg.MaxAutoIterations <= 0 {
		cfg.MaxAutoIterations = DefaultConfig().MaxAutoIterations
	}
	if cfg.Limits.MaxPositionSize <= 0 {
		cfg.Limits = DefaultConfig().Limits
	}
	return &Manager{cfg: cfg, deps: deps, sessions: make(map[string]*Coordinator)}
}

// Create opens a new session for a symbol. A non-positive budget uses the
// configured default; an unknown interval uses the default data interval.
func (m *Manager) Create(symbol, interval string, budget decimal.Decimal) (*Coordinator, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	cfg := m.cfg
	if budget.IsPositive() {
		cfg.InitialBudget = budget
	}
	if scheduler.IsValidInterval(interval) {
		cfg.DefaultInterval = interval
	}

	c := newCoordinator(uuid.NewString(), symbol, cfg, m.deps)
	m.mu.Lock()
	m.sessions[c.id] = c
	m.mu.Unlock()

	c.mu.Lock()
	c.persistSession(context.Background())
	c.mu.Unlock()

	logger.Infof("session %s: created for %s budget=%s interval=%s",
		c.id, symbol, cfg.InitialBudget, cfg.DefaultInterval)
	return c, nil
}

// Get looks up a live session.
func (m *Manager) Get(sessionID string) (*Coordinator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// List summarizes every live session, including closed ones not yet evicted.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.sessions))
	for _, c := range m.sessions {
		c.mu.Lock()
		out = append(out, Summary{
			SessionID: c.id,
			Symbol:    c.symbol,
			Interval:  c.interval,
			Active:    c.active,
			Turns:     c.turns,
			CreatedAt: c.created,
		})
		c.mu.Unlock()
	}
	return out
}

// Close stops a session: no further turns are scheduled or accepted. The
// final portfolio state stays readable and is persisted as closed.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	c, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return nil
	}
	c.active = false
	if c.autoCancel != nil {
		c.autoCancel()
		c.autoCancel = nil
	}
	c.persistSession(ctx)
	logger.Infof("session %s: closed after %d turns", c.id, c.turns)
	return nil
}
