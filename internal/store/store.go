// Package store persists donors and analyses in PostgreSQL.
//
// Datasets, statuses, and selections are stored as JSONB blobs: an
// analysis is written once when the user confirms it and read back
// whole, so there is nothing to gain from normalizing the panel into
// rows.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX abstracts pgx connection types so the store works with a pool,
// a single connection, or a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides access to the serology database.
type Store struct {
	db DBTX
}

// New creates a Store backed by db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a Store backed by a pgx connection pool.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// DB exposes the underlying connection for administrative operations.
func (s *Store) DB() DBTX {
	return s.db
}

const schema = `
CREATE TABLE IF NOT EXISTS donors (
	spendernummer TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	notes         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS analyses (
	id              UUID PRIMARY KEY,
	spendernummer   TEXT NOT NULL REFERENCES donors(spendernummer),
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	lot_number      TEXT NOT NULL DEFAULT '',
	panel           JSONB NOT NULL,
	statuses        JSONB NOT NULL DEFAULT '{}',
	user_selections JSONB NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at DESC);
`

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
