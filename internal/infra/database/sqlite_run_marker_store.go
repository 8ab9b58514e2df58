package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteRunMarkerStore keeps the last batch run per owner in a local SQLite file.
type SQLiteRunMarkerStore struct {
	db *sql.DB
}

func NewSQLiteRunMarkerStore(db *sql.DB) (*SQLiteRunMarkerStore, error) {
	s := &SQLiteRunMarkerStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate run marker table: %w", err)
	}
	return s, nil
}

func (s *SQLiteRunMarkerStore) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS run_markers (
        owner_id TEXT PRIMARY KEY,
        last_run_at TEXT NOT NULL
    );`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLiteRunMarkerStore) Get(ctx context.Context, ownerID string) (time.Time, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT last_run_at FROM run_markers WHERE owner_id = ?`, ownerID).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("error reading run marker: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("error parsing run marker %q: %w", raw, err)
	}
	return at, true, nil
}

func (s *SQLiteRunMarkerStore) Set(ctx context.Context, ownerID string, at time.Time) error {
	query := `
        INSERT INTO run_markers (owner_id, last_run_at) VALUES (?, ?)
        ON CONFLICT (owner_id) DO UPDATE SET last_run_at = excluded.last_run_at`
	if _, err := s.db.ExecContext(ctx, query, ownerID, at.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("error writing run marker: %w", err)
	}
	return nil
}

func (s *SQLiteRunMarkerStore) Clear(ctx context.Context, ownerID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM run_markers WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("error clearing run marker: %w", err)
	}
	return nil
}
