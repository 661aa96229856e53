package store

import (
	"context"
	"sync"

	"zodo/app/models"
)

// MemoryStore keeps the slot in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	rec   *models.Record
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith starts with rec already saved.
func NewMemoryStoreWith(rec models.Record) *MemoryStore {
	return &MemoryStore{rec: &rec}
}

func (s *MemoryStore) Load(_ context.Context) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil, nil
	}
	rec := *s.rec
	return &rec, nil
}

func (s *MemoryStore) Save(_ context.Context, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStore) Close(context.Context) error { return nil }
