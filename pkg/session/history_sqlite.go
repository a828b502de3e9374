// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// timestamps are stored with a fixed width so they sort lexically.
const historyTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteHistoryStore persists history entries in SQLite.
type SQLiteHistoryStore struct {
	db     *sql.DB
	ownsDB bool
}

// OpenSQLiteHistoryStore opens dsn with the modernc driver and ensures the
// schema. The returned store closes the database on Close.
func OpenSQLiteHistoryStore(dsn string) (*SQLiteHistoryStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	s, err := NewSQLiteHistoryStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewSQLiteHistoryStore creates a SQLite-backed history store on db and
// ensures the schema.
func NewSQLiteHistoryStore(db *sql.DB) (*SQLiteHistoryStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureHistorySchema(db); err != nil {
		return nil, err
	}
	return &SQLiteHistoryStore{db: db}, nil
}

// Save stores one entry.
func (s *SQLiteHistoryStore) Save(ctx context.Context, entry HistoryEntry) error {
	actions, err := json.Marshal(entry.Actions)
	if err != nil {
		return err
	}
	var skill sql.NullString
	if entry.SkillName != nil {
		skill = sql.NullString{String: *entry.SkillName, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO execution_history (
			execution_id, session_id, trigger_message, skill_name, status, actions_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ExecutionID,
		entry.SessionID,
		entry.TriggerMessage,
		skill,
		string(entry.Status),
		string(actions),
		entry.CreatedAt.UTC().Format(historyTimeFormat),
	)
	return err
}

// List returns entries newest first.
func (s *SQLiteHistoryStore) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	query := `
		SELECT execution_id, session_id, trigger_message, skill_name, status, actions_json, created_at
		FROM execution_history
		ORDER BY id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one entry by execution id.
func (s *SQLiteHistoryStore) Get(ctx context.Context, executionID string) (HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT execution_id, session_id, trigger_message, skill_name, status, actions_json, created_at
		FROM execution_history
		WHERE execution_id = ?
	`, executionID)
	entry, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryEntry{}, historyNotFound(executionID)
	}
	return entry, err
}

// Close closes the database when the store opened it.
func (s *SQLiteHistoryStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistory(row rowScanner) (HistoryEntry, error) {
	var (
		entry   HistoryEntry
		skill   sql.NullString
		status  string
		actions string
		created string
	)
	if err := row.Scan(
		&entry.ExecutionID,
		&entry.SessionID,
		&entry.TriggerMessage,
		&skill,
		&status,
		&actions,
		&created,
	); err != nil {
		return HistoryEntry{}, err
	}
	if skill.Valid {
		name := skill.String
		entry.SkillName = &name
	}
	entry.Status = Status(status)
	if actions != "" {
		if err := json.Unmarshal([]byte(actions), &entry.Actions); err != nil {
			return HistoryEntry{}, fmt.Errorf("decode actions of %s: %w", entry.ExecutionID, err)
		}
	}
	if ts, err := time.Parse(historyTimeFormat, created); err == nil {
		entry.CreatedAt = ts
	}
	return entry, nil
}

func ensureHistorySchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS execution_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			execution_id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			trigger_message TEXT NOT NULL,
			skill_name TEXT,
			status TEXT NOT NULL,
			actions_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_execution_history_created ON execution_history(created_at);
		CREATE INDEX IF NOT EXISTS idx_execution_history_session ON execution_history(session_id);
	`)
	return err
}
