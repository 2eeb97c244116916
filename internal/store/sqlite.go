package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/hms-console/internal/domain"
	"github.com/ashureev/hms-console/internal/shared"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes writers to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS status_transitions (
		id TEXT PRIMARY KEY,
		record_key TEXT NOT NULL,
		from_status TEXT,
		to_status TEXT NOT NULL,
		message TEXT NOT NULL,
		operator_id TEXT,
		confirmed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transitions_record ON status_transitions(record_key, confirmed_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordTransition appends one transition. A busy database is retried with
// exponential backoff.
func (s *SQLiteStore) RecordTransition(ctx context.Context, t *domain.Transition) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.ConfirmedAt.IsZero() {
		t.ConfirmedAt = time.Now()
	}

	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		err := s.recordTransitionOnce(ctx, t)
		if err == nil {
			return nil
		}

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // 50ms, 100ms
			slog.Debug("RecordTransition hit a locked database, retrying",
				"record_key", t.RecordKey,
				"attempt", i+1,
				"delay", delay)
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return fmt.Errorf("record transition for %s: %w", t.RecordKey, err)
	}

	return nil
}

func (s *SQLiteStore) recordTransitionOnce(ctx context.Context, t *domain.Transition) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query := `
	INSERT INTO status_transitions (id, record_key, from_status, to_status, message, operator_id, confirmed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	var from, operatorID interface{}
	if t.From != "" {
		from = string(t.From)
	}
	if t.OperatorID != "" {
		operatorID = t.OperatorID
	}

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.RecordKey, from, string(t.To), t.Message, operatorID, t.ConfirmedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// ListTransitions returns the newest transitions for recordKey first.
func (s *SQLiteStore) ListTransitions(ctx context.Context, recordKey string, limit int) ([]*domain.Transition, error) {
	query := `
		SELECT id, record_key, from_status, to_status, message, operator_id, confirmed_at
		FROM status_transitions WHERE record_key = ?
		ORDER BY confirmed_at DESC, rowid DESC`
	args := []interface{}{recordKey}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close transition rows", "error", closeErr)
		}
	}()

	var out []*domain.Transition
	for rows.Next() {
		var t domain.Transition
		var from, operatorID sql.NullString
		var to string
		var confirmedAt int64

		if err := rows.Scan(&t.ID, &t.RecordKey, &from, &to, &t.Message, &operatorID, &confirmedAt); err != nil {
			return nil, fmt.Errorf("scan transition row: %w", err)
		}
		t.From = domain.Status(from.String)
		t.To = domain.Status(to)
		t.OperatorID = operatorID.String
		t.ConfirmedAt = time.UnixMilli(confirmedAt)
		out = append(out, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}

	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
