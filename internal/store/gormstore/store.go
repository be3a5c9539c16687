// Package gormstore persists sessions and executed trades in SQLite via
// gorm. One store instance is shared by every session; gorm serializes
// writes over the small WAL connection pool.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"paperdesk/internal/ledger"
	"paperdesk/internal/store/model"
	"paperdesk/internal/types"
)

// SessionRecord is the persisted view of one trading session.
type SessionRecord struct {
	SessionID     string
	Symbol        string
	Interval      string
	InitialBudget decimal.Decimal
	Status        model.SessionStatus
	State         ledger.State
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store wraps the gorm handle.
type Store struct {
	db *gorm.DB
}

// NewStore opens (or creates) the SQLite database at path and migrates the
// session and trade tables.
func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path is required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.SessionModel{}, &model.TradeModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a little read parallelism for HTTP handlers while keeping
	// lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSession upserts the session row keyed by session_id.
func (s *Store) SaveSession(ctx context.Context, rec SessionRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	if strings.TrimSpace(rec.SessionID) == "" {
		return fmt.Errorf("session_id is required")
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	stateJSON, err := json.Marshal(rec.State)
	if err != nil {
		return err
	}
	m := model.SessionModel{
		SessionID:     rec.SessionID,
		Symbol:        strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		Interval:      rec.Interval,
		InitialBudget: rec.InitialBudget.String(),
		Status:        rec.Status,
		StateJSON:     datatypes.JSON(stateJSON),
		CreatedAtUnix: rec.CreatedAt.Unix(),
		UpdatedAtUnix: rec.UpdatedAt.Unix(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"symbol", "interval", "initial_budget", "status", "state_json", "updated_at",
			}),
		}).
		Create(&m).Error
}

// GetSession loads one session by id. The bool is false when absent.
func (s *Store) GetSession(ctx context.Context, sessionID string) (SessionRecord, bool, error) {
	if s == nil || s.db == nil {
		return SessionRecord{}, false, fmt.Errorf("gorm store not initialized")
	}
	var m model.SessionModel
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionRecord{}, false, nil
		}
		return SessionRecord{}, false, err
	}
	rec, err := sessionModelToRecord(m)
	if err != nil {
		return SessionRecord{}, false, err
	}
	return rec, true, nil
}

// ListSessions returns sessions newest first, optionally filtered by status.
func (s *Store) ListSessions(ctx context.Context, status model.SessionStatus, limit int) ([]SessionRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := s.db.WithContext(ctx).Model(&model.SessionModel{})
	if status != model.SessionStatusUnknown {
		query = query.Where("status = ?", status)
	}
	var models []model.SessionModel
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]SessionRecord, 0, len(models))
	for _, m := range models {
		rec, err := sessionModelToRecord(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// AppendTrade records one executed trade for a session.
func (s *Store) AppendTrade(ctx context.Context, sessionID string, trade ledger.TradeRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session_id is required")
	}
	m := model.TradeModel{
		SessionID:     sessionID,
		Symbol:        strings.ToUpper(strings.TrimSpace(trade.Symbol)),
		Action:        string(trade.Action),
		Quantity:      trade.Quantity,
		Price:         trade.Price.String(),
		Notional:      trade.Notional.String(),
		RealizedPnL:   trade.RealizedPnL.String(),
		Reason:        trade.Reason,
		Confidence:    trade.Confidence,
		ExecutedAtMs:  trade.ExecutedAt.UnixMilli(),
		CreatedAtUnix: time.Now().Unix(),
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

// ListTrades returns a session's trades, newest first.
func (s *Store) ListTrades(ctx context.Context, sessionID string, limit int) ([]ledger.TradeRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var models []model.TradeModel
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("executed_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]ledger.TradeRecord, 0, len(models))
	for _, m := range models {
		out = append(out, tradeModelToRecord(m))
	}
	return out, nil
}

func sessionModelToRecord(m model.SessionModel) (SessionRecord, error) {
	budget, err := decimal.NewFromString(m.InitialBudget)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("session %s: bad initial_budget %q: %w", m.SessionID, m.InitialBudget, err)
	}
	rec := SessionRecord{
		SessionID:     m.SessionID,
		Symbol:        m.Symbol,
		Interval:      m.Interval,
		InitialBudget: budget,
		Status:        m.Status,
		CreatedAt:     time.Unix(m.CreatedAtUnix, 0),
		UpdatedAt:     time.Unix(m.UpdatedAtUnix, 0),
	}
	if len(m.StateJSON) > 0 {
		if err := json.Unmarshal(m.StateJSON, &rec.State); err != nil {
			return SessionRecord{}, fmt.Errorf("session %s: bad state_json: %w", m.SessionID, err)
		}
	}
	return rec, nil
}

func tradeModelToRecord(m model.TradeModel) ledger.TradeRecord {
	price, _ := decimal.NewFromString(m.Price)
	notional, _ := decimal.NewFromString(m.Notional)
	realized, _ := decimal.NewFromString(m.RealizedPnL)
	return ledger.TradeRecord{
		Action:      types.Action(m.Action),
		Symbol:      m.Symbol,
		Quantity:    m.Quantity,
		Price:       price,
		Notional:    notional,
		RealizedPnL: realized,
		Reason:      m.Reason,
		Confidence:  m.Confidence,
		ExecutedAt:  time.UnixMilli(m.ExecutedAtMs),
	}
}
