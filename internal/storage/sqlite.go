package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// Compile-time interface check.
var _ domain.Repository = (*SQLiteStore)(nil)

// DatabaseName is the file SQLiteStore opens inside its directory.
const DatabaseName = "hotpot.db"

// Marker keys in the kv table recording that a section was saved at
// least once, so an empty plate is told apart from a fresh database.
const (
	keyCatalogSaved = "catalog.saved"
	keyStagingSaved = "staging.saved"
	keyAdminHash    = "settings.admin_hash"
	keySeenGuide    = "settings.seen_guide"
)

// SQLiteStore persists to a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *logger.Logger
}

// OpenSQLite opens (and migrates) the database in dir.
func OpenSQLite(dir string, log *logger.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.Join(dir, DatabaseName))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	version, err := migrate(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}
	log.Debug("sqlite store ready at schema version %d", version)
	return &SQLiteStore{db: db, log: log}, nil
}

// LoadCatalog implements domain.Repository.
func (s *SQLiteStore) LoadCatalog(ctx context.Context) ([]domain.Ingredient, error) {
	if ok, err := s.marked(ctx, keyCatalogSaved); err != nil || !ok {
		if err == nil {
			err = domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, emoji, seconds, category, usage_count, pinned FROM ingredients ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying ingredients: %w", err)
	}
	defer rows.Close()

	var out []domain.Ingredient
	for rows.Next() {
		var it domain.Ingredient
		var cat string
		var pinned int
		if err := rows.Scan(&it.ID, &it.Name, &it.Emoji, &it.Seconds, &cat, &it.UsageCount, &pinned); err != nil {
			return nil, fmt.Errorf("scanning ingredient: %w", err)
		}
		it.Category = domain.Category(cat)
		it.Pinned = pinned != 0
		out = append(out, it)
	}
	return out, rows.Err()
}

// SaveCatalog implements domain.Repository. The table is rewritten in
// one transaction.
func (s *SQLiteStore) SaveCatalog(ctx context.Context, items []domain.Ingredient) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ingredients`); err != nil {
			return fmt.Errorf("clearing ingredients: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO ingredients(id, position, name, emoji, seconds, category, usage_count, pinned) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, it := range items {
			pinned := 0
			if it.Pinned {
				pinned = 1
			}
			if _, err := stmt.ExecContext(ctx, it.ID, i, it.Name, it.Emoji, it.Seconds, string(it.Category), it.UsageCount, pinned); err != nil {
				return fmt.Errorf("inserting ingredient %s: %w", it.ID, err)
			}
		}
		return s.mark(ctx, tx, keyCatalogSaved, "1")
	})
}

// LoadStaging implements domain.Repository.
func (s *SQLiteStore) LoadStaging(ctx context.Context) ([]domain.StagingEntry, error) {
	if ok, err := s.marked(ctx, keyStagingSaved); err != nil || !ok {
		if err == nil {
			err = domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT uid, ingredient_id FROM staging ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying staging: %w", err)
	}
	defer rows.Close()

	var out []domain.StagingEntry
	for rows.Next() {
		var e domain.StagingEntry
		if err := rows.Scan(&e.UID, &e.IngredientID); err != nil {
			return nil, fmt.Errorf("scanning staging: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveStaging implements domain.Repository.
func (s *SQLiteStore) SaveStaging(ctx context.Context, entries []domain.StagingEntry) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM staging`); err != nil {
			return fmt.Errorf("clearing staging: %w", err)
		}
		for i, e := range entries {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO staging(position, uid, ingredient_id) VALUES (?, ?, ?)`, i, e.UID, e.IngredientID); err != nil {
				return fmt.Errorf("inserting staging %s: %w", e.UID, err)
			}
		}
		return s.mark(ctx, tx, keyStagingSaved, "1")
	})
}

// LoadSettings implements domain.Repository.
func (s *SQLiteStore) LoadSettings(ctx context.Context) (domain.Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv WHERE key IN (?, ?)`, keyAdminHash, keySeenGuide)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	var st domain.Settings
	found := false
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return domain.Settings{}, fmt.Errorf("scanning settings: %w", err)
		}
		found = true
		switch k {
		case keyAdminHash:
			st.AdminHash = v
		case keySeenGuide:
			st.SeenGuide, _ = strconv.ParseBool(v)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Settings{}, err
	}
	if !found {
		return domain.Settings{}, domain.ErrNotFound
	}
	return st, nil
}

// SaveSettings implements domain.Repository.
func (s *SQLiteStore) SaveSettings(ctx context.Context, st domain.Settings) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.mark(ctx, tx, keyAdminHash, st.AdminHash); err != nil {
			return err
		}
		return s.mark(ctx, tx, keySeenGuide, strconv.FormatBool(st.SeenGuide))
	})
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) mark(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO kv(key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) marked(ctx context.Context, key string) (bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	return true, nil
}
