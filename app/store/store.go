// Package store persists the task tree as one record under a fixed key.
package store

import (
	"context"
	"fmt"

	"zodo/app/config"
	"zodo/app/models"
)

// Store is the persistence slot for the whole tree. Load returns a nil
// record when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (*models.Record, error)
	Save(ctx context.Context, rec models.Record) error
	Close(ctx context.Context) error
}

// Open builds the store selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.Store.Path), nil
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendNeo4j:
		driver, err := config.InitNeo4j(ctx, cfg.Neo4j)
		if err != nil {
			return nil, err
		}
		return NewNeo4jStore(driver, cfg.Store.Key), nil
	case config.BackendPostgres:
		pool, err := config.InitPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		s := NewPgStore(pool, cfg.Store.Key)
		if err := s.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("preparing postgres table: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
