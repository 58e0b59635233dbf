package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// Compile-time interface check.
var _ domain.Repository = (*FileStore)(nil)

// SnapshotName is the file FileStore writes inside its directory.
const SnapshotName = "hotpot.cbor"

const snapshotVersion = 1

// snapshot is the on-disk document. Nil sections were never saved.
type snapshot struct {
	Version  int                   `cbor:"version"`
	Catalog  []domain.Ingredient   `cbor:"catalog"`
	Staging  []domain.StagingEntry `cbor:"staging"`
	Settings *domain.Settings      `cbor:"settings"`

	HasCatalog bool `cbor:"hasCatalog"`
	HasStaging bool `cbor:"hasStaging"`
}

// FileStore keeps one CBOR snapshot file. Every save rewrites the file
// through a temp file and rename, so a crash leaves either the old or
// the new snapshot.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  *logger.Logger
}

// NewFileStore creates a store in dir, creating dir if needed.
func NewFileStore(dir string, log *logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, SnapshotName), log: log}, nil
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string { return s.path }

// LoadCatalog implements domain.Repository.
func (s *FileStore) LoadCatalog(ctx context.Context) ([]domain.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	if !snap.HasCatalog {
		return nil, domain.ErrNotFound
	}
	return snap.Catalog, nil
}

// SaveCatalog implements domain.Repository.
func (s *FileStore) SaveCatalog(ctx context.Context, items []domain.Ingredient) error {
	return s.update(func(snap *snapshot) {
		snap.Catalog = items
		snap.HasCatalog = true
	})
}

// LoadStaging implements domain.Repository.
func (s *FileStore) LoadStaging(ctx context.Context) ([]domain.StagingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	if !snap.HasStaging {
		return nil, domain.ErrNotFound
	}
	return snap.Staging, nil
}

// SaveStaging implements domain.Repository.
func (s *FileStore) SaveStaging(ctx context.Context, entries []domain.StagingEntry) error {
	return s.update(func(snap *snapshot) {
		snap.Staging = entries
		snap.HasStaging = true
	})
}

// LoadSettings implements domain.Repository.
func (s *FileStore) LoadSettings(ctx context.Context) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read()
	if err != nil {
		return domain.Settings{}, err
	}
	if snap.Settings == nil {
		return domain.Settings{}, domain.ErrNotFound
	}
	return *snap.Settings, nil
}

// SaveSettings implements domain.Repository.
func (s *FileStore) SaveSettings(ctx context.Context, st domain.Settings) error {
	return s.update(func(snap *snapshot) {
		snap.Settings = &st
	})
}

// Close is a no-op; the file is not held open.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) update(mutate func(*snapshot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.read()
	if err != nil {
		return err
	}
	mutate(&snap)
	snap.Version = snapshotVersion
	return s.write(snap)
}

// read returns an empty snapshot when the file does not exist.
func (s *FileStore) read() (snapshot, error) {
	var snap snapshot
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("reading snapshot: %w", err)
	}
	if err := decMode.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decoding snapshot %s: %w", s.path, err)
	}
	if snap.Version > snapshotVersion {
		return snap, fmt.Errorf("snapshot %s has version %d, newer than %d", s.path, snap.Version, snapshotVersion)
	}
	return snap, nil
}

func (s *FileStore) write(snap snapshot) error {
	data, err := encMode.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".hotpot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	s.log.Debug("snapshot written (%d bytes)", len(data))
	return nil
}
