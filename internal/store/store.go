// Package store persists collector output, campaign target files and the
// send ledger.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/xdrip/internal/types"
)

// LedgerFile is the ledger's name inside the data directory
const LedgerFile = "ledger.db"

// SendRecord is one send attempt as recorded in the ledger
type SendRecord struct {
	ID          int64
	RunID       string
	UserID      string
	Status      types.Status
	Error       string
	AttemptedAt time.Time
}

// Ledger records every send attempt so the daily count survives restarts
type Ledger struct {
	db *sql.DB
}

// New opens (creating if needed) the ledger at dbPath
func New(dbPath string) (*Ledger, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	// Campaign workers share one writer connection
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}

	return l, nil
}

// Close closes the database connection
func (l *Ledger) Close() error {
	return l.db.Close()
}

// migrate creates the database schema
func (l *Ledger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sends (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		attempted_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sends_attempted_at ON sends(attempted_at);
	CREATE INDEX IF NOT EXISTS idx_sends_user_id ON sends(user_id);
	`

	_, err := l.db.Exec(schema)
	return err
}

// RecordSend appends one attempt
func (l *Ledger) RecordSend(ctx context.Context, r SendRecord) error {
	if r.AttemptedAt.IsZero() {
		r.AttemptedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO sends (run_id, user_id, status, error, attempted_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.RunID, r.UserID, string(r.Status), r.Error, r.AttemptedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record send to %s: %w", r.UserID, err)
	}
	return nil
}

// CountSince counts successful sends at or after since
func (l *Ledger) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sends WHERE status = ? AND attempted_at >= ?
	`, string(types.StatusSuccess), since.UnixMilli()).Scan(&n)
	return n, err
}

// CountToday counts successful sends since local midnight
func (l *Ledger) CountToday(ctx context.Context) (int, error) {
	return l.CountSince(ctx, StartOfDay(time.Now()))
}

// StartOfDay returns midnight of t's day in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// LatestStatus returns the most recent recorded status for userID.
// ok is false when the user was never attempted.
func (l *Ledger) LatestStatus(ctx context.Context, userID string) (status types.Status, ok bool, err error) {
	var s string
	err = l.db.QueryRowContext(ctx, `
		SELECT status FROM sends WHERE user_id = ? ORDER BY attempted_at DESC, id DESC LIMIT 1
	`, userID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return types.Status(s), true, nil
}

// SendsSince returns every attempt at or after since, oldest first
func (l *Ledger) SendsSince(ctx context.Context, since time.Time) ([]SendRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, run_id, user_id, status, error, attempted_at
		FROM sends
		WHERE attempted_at >= ?
		ORDER BY attempted_at, id
	`, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SendRecord
	for rows.Next() {
		var r SendRecord
		var status string
		var at int64
		if err := rows.Scan(&r.ID, &r.RunID, &r.UserID, &status, &r.Error, &at); err != nil {
			return nil, err
		}
		r.Status = types.Status(status)
		r.AttemptedAt = time.UnixMilli(at)
		records = append(records, r)
	}
	return records, rows.Err()
}
