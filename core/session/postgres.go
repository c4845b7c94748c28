package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	getStateQuery = `SELECT state FROM dialogue_sessions WHERE session_key = $1`
	setStateQuery = `INSERT INTO dialogue_sessions (session_key, state, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (session_key) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`
)

// PostgresStore keeps state labels in the dialogue_sessions table
// (see migrations/0001_dialogue_sessions.up.sql).
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get selects the state for key; a missing row is reported as found=false.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var state string
	err := s.db.GetContext(ctx, &state, getStateQuery, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return state, true, nil
}

// Set upserts the state for key.
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, setStateQuery, key, value); err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
