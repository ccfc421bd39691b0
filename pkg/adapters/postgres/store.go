// Package postgres stores checkpoints in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

var (
	_ ports.CheckpointStore = (*Store)(nil)
	_ ports.Lister          = (*Store)(nil)
)

// Store implements ports.CheckpointStore for PostgreSQL.
// The conversation is kept as JSONB so it can be queried in place.
type Store struct {
	pool      *pgxpool.Pool
	tableName string
}

// Option configures the Store.
type Option func(*Store)

// WithTable sets the table name (default "switchboard_checkpoints").
func WithTable(name string) Option {
	return func(s *Store) {
		s.tableName = name
	}
}

// Connect creates a pool from a connection string and initialises the schema.
func Connect(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	s, err := New(ctx, pool, opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool and initialises the schema.
func New(ctx context.Context, pool *pgxpool.Pool, opts ...Option) (*Store, error) {
	s := &Store{pool: pool, tableName: "switchboard_checkpoints"}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) table() string {
	return pgx.Identifier{s.tableName}.Sanitize()
}

func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			session_id TEXT PRIMARY KEY,
			last_node TEXT NOT NULL,
			step INTEGER NOT NULL,
			turn INTEGER NOT NULL,
			state JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`, s.table()))
	if err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

// Save upserts the checkpoint.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	if cp == nil || cp.SessionID == "" {
		return domain.ErrEmptySessionID
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (session_id, last_node, step, turn, state, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			last_node = EXCLUDED.last_node,
			step = EXCLUDED.step,
			turn = EXCLUDED.turn,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`, s.table())

	_, err := s.pool.Exec(ctx, query, cp.SessionID, cp.LastNode, cp.Step, cp.Turn, cp.State, cp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint of a session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT session_id, last_node, step, turn, state, updated_at
		FROM %s
		WHERE session_id = $1
	`, s.table())

	var cp domain.Checkpoint
	err := s.pool.QueryRow(ctx, query, sessionID).Scan(
		&cp.SessionID, &cp.LastNode, &cp.Step, &cp.Turn, &cp.State, &cp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return &cp, nil
}

// Clear removes the session.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, s.table()), sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// List returns session IDs ordered by most recent update.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT session_id FROM %s ORDER BY updated_at DESC, session_id`, s.table()))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return ids, nil
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}
