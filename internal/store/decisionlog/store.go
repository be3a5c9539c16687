// Package decisionlog keeps an append-only log of aggregated decisions for
// later inspection and the session report. It deliberately uses plain SQL on
// a separate handle so heavy decision payloads never contend with the
// session store's gorm pool.
package decisionlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"paperdesk/internal/decision"
)

// Record is one logged decision turn.
type Record struct {
	ID        int64             `json:"id"`
	SessionID string            `json:"session_id"`
	Symbol    string            `json:"symbol"`
	Timestamp int64             `json:"ts"`
	Executed  bool              `json:"executed"`
	Note      string            `json:"note,omitempty"`
	Decision  decision.Decision `json:"decision"`
}

// Query filters ListDecisions.
type Query struct {
	SessionID string
	Symbol    string
	Limit     int
	Offset    int
}

// Store is the SQLite-backed decision log.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewStore opens the log database at path, creating the schema if needed.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("decision log path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS decision_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			ts INTEGER NOT NULL,
			executed INTEGER NOT NULL DEFAULT 0,
			note TEXT NOT NULL DEFAULT '',
			decision_json TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_decision_log_session ON decision_log(session_id, ts);
		CREATE INDEX IF NOT EXISTS idx_decision_log_symbol ON decision_log(symbol, ts);
	`)
	return err
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Append logs one decision turn.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return fmt.Errorf("decision log store is closed")
	}
	if strings.TrimSpace(rec.SessionID) == "" {
		return fmt.Errorf("session_id is required")
	}
	if rec.Timestamp <= 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	payload, err := json.Marshal(rec.Decision)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO decision_log (session_id, symbol, ts, executed, note, decision_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		rec.Timestamp,
		boolToInt(rec.Executed),
		rec.Note,
		string(payload),
	)
	return err
}

// List returns matching records, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]Record, error) {
	if s == nil {
		return nil, nil
	}
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("decision log store is closed")
	}
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, session_id, symbol, ts, executed, note, decision_json FROM decision_log WHERE 1=1`)
	args := make([]any, 0, 4)
	if sid := strings.TrimSpace(q.SessionID); sid != "" {
		sb.WriteString(` AND session_id = ?`)
		args = append(args, sid)
	}
	if sym := strings.ToUpper(strings.TrimSpace(q.Symbol)); sym != "" {
		sb.WriteString(` AND symbol = ?`)
		args = append(args, sym)
	}
	sb.WriteString(` ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?`)
	args = append(args, q.Limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var executed int
		var payload string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Symbol, &rec.Timestamp, &executed, &rec.Note, &payload); err != nil {
			return nil, err
		}
		rec.Executed = executed != 0
		if err := json.Unmarshal([]byte(payload), &rec.Decision); err != nil {
			return nil, fmt.Errorf("decision log row %d: bad payload: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count reports how many rows match the filter.
func (s *Store) Count(ctx context.Context, q Query) (int, error) {
	if s == nil {
		return 0, nil
	}
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return 0, fmt.Errorf("decision log store is closed")
	}
	var sb strings.Builder
	sb.WriteString(`SELECT COUNT(*) FROM decision_log WHERE 1=1`)
	args := make([]any, 0, 2)
	if sid := strings.TrimSpace(q.SessionID); sid != "" {
		sb.WriteString(` AND session_id = ?`)
		args = append(args, sid)
	}
	if sym := strings.ToUpper(strings.TrimSpace(q.Symbol)); sym != "" {
		sb.WriteString(` AND symbol = ?`)
		args = append(args, sym)
	}
	var total int
	if err := db.QueryRowContext(ctx, sb.String(), args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
