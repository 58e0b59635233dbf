// Package storage provides Repository implementations: in-memory, a
// CBOR snapshot file, and SQLite.
package storage

import (
	"context"
	"sync"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// Compile-time interface check.
var _ domain.Repository = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. Nothing survives a
// restart. Safe for concurrent access.
type MemoryStore struct {
	mu       sync.RWMutex
	catalog  []domain.Ingredient
	staging  []domain.StagingEntry
	settings *domain.Settings
	log      *logger.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{log: log}
}

// LoadCatalog returns the saved catalog.
func (s *MemoryStore) LoadCatalog(ctx context.Context) ([]domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return nil, domain.ErrNotFound
	}
	return append([]domain.Ingredient{}, s.catalog...), nil
}

// SaveCatalog stores a copy of items.
func (s *MemoryStore) SaveCatalog(ctx context.Context, items []domain.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = append([]domain.Ingredient{}, items...)
	s.log.Debug("saved catalog, count=%d", len(items))
	return nil
}

// LoadStaging returns the saved plate in order.
func (s *MemoryStore) LoadStaging(ctx context.Context) ([]domain.StagingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.staging == nil {
		return nil, domain.ErrNotFound
	}
	return append([]domain.StagingEntry{}, s.staging...), nil
}

// SaveStaging stores a copy of entries.
func (s *MemoryStore) SaveStaging(ctx context.Context, entries []domain.StagingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staging = append([]domain.StagingEntry{}, entries...)
	s.log.Debug("saved plate, count=%d", len(entries))
	return nil
}

// LoadSettings returns the saved settings.
func (s *MemoryStore) LoadSettings(ctx context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return domain.Settings{}, domain.ErrNotFound
	}
	return *s.settings, nil
}

// SaveSettings stores settings.
func (s *MemoryStore) SaveSettings(ctx context.Context, st domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &st
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
