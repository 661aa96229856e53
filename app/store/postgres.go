package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zodo/app/codec"
	"zodo/app/models"
)

// PgStore is a PostgreSQL-backed slot: one row per key holding the record
// as JSONB.
type PgStore struct {
	pool *pgxpool.Pool
	key  string
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool, key string) *PgStore {
	return &PgStore{pool: pool, key: key}
}

// EnsureTable creates the slots table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS zodo_slots (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

func (s *PgStore) Load(ctx context.Context) (*models.Record, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM zodo_slots WHERE key = $1`, s.key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading slot %q: %w", s.key, err)
	}
	rec, err := codec.DecodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("loading slot %q: %w", s.key, err)
	}
	return &rec, nil
}

func (s *PgStore) Save(ctx context.Context, rec models.Record) error {
	data, err := codec.Encode(rec, codec.JSON)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO zodo_slots (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		s.key, string(data))
	if err != nil {
		return fmt.Errorf("saving slot %q: %w", s.key, err)
	}
	return nil
}

func (s *PgStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}
