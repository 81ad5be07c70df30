package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"qaforge/internal/schema"
)

// PostgresStore keeps payloads in one table with JSONB bodies. The
// schema is created lazily on first use.
type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("store: postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store: db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS qaforge_payloads (
  kind TEXT NOT NULL,
  id TEXT NOT NULL,
  payload JSONB NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  PRIMARY KEY (kind, id)
);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, id string, a *schema.RepositoryAnalysis) error {
	return s.upsert(ctx, "analysis", id, a)
}

func (s *PostgresStore) LoadAnalysis(ctx context.Context, id string) (*schema.RepositoryAnalysis, error) {
	var a schema.RepositoryAnalysis
	if err := s.load(ctx, "analysis", id, &a); err != nil {
		return nil, err
	}
	a.Normalize()
	return &a, nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, id string, r *schema.GenerationResult) error {
	return s.upsert(ctx, "result", id, r)
}

func (s *PostgresStore) LoadResult(ctx context.Context, id string) (*schema.GenerationResult, error) {
	var r schema.GenerationResult
	if err := s.load(ctx, "result", id, &r); err != nil {
		return nil, err
	}
	if r.Files == nil {
		r.Files = map[string]schema.GeneratedTestFile{}
	}
	if r.CategoryCounts == nil {
		r.CategoryCounts = map[string]int{}
	}
	return &r, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) upsert(ctx context.Context, kind, id string, payload any) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("store: encode %s/%s: %w", kind, id, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO qaforge_payloads (kind, id, payload, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (kind, id)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`,
		kind, id, data)
	return err
}

func (s *PostgresStore) load(ctx context.Context, kind, id string, out any) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	var data []byte
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM qaforge_payloads WHERE kind = $1 AND id = $2`, kind, id)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("store: decode %s/%s: %w", kind, id, err)
	}
	return nil
}
