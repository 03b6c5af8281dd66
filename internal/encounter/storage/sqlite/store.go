// Package sqlite implements encounter persistence over SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hearthvale/initiative/internal/encounter/domain"
	"github.com/hearthvale/initiative/internal/encounter/storage"
	"github.com/hearthvale/initiative/internal/encounter/storage/sqlite/migrations"
	"github.com/hearthvale/initiative/internal/platform/storage/sqlitemigrate"
)

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Store implements storage.EncounterStore over a single SQLite file.
//
// The encounter itself is persisted as one JSON document per row; id, owner
// and version are mirrored into columns for lookups and the conditional save.
type Store struct {
	sqlDB *sql.DB
}

// Open opens an encounter SQLite store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put writes an encounter unconditionally.
func (s *Store) Put(ctx context.Context, enc domain.Encounter) error {
	document, err := json.Marshal(enc)
	if err != nil {
		return fmt.Errorf("marshal encounter: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO encounters (id, owner_id, version, document, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    owner_id = excluded.owner_id,
    version = excluded.version,
    document = excluded.document,
    updated_at = excluded.updated_at
`, enc.ID, enc.OwnerID, enc.Version, string(document), toMillis(enc.CreatedAt), toMillis(enc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put encounter: %w", err)
	}
	return nil
}

// Get loads an encounter by id.
func (s *Store) Get(ctx context.Context, id string) (domain.Encounter, error) {
	var (
		document string
		version  int64
	)
	row := s.sqlDB.QueryRowContext(ctx, "SELECT document, version FROM encounters WHERE id = ?", id)
	if err := row.Scan(&document, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Encounter{}, storage.ErrNotFound
		}
		return domain.Encounter{}, fmt.Errorf("get encounter: %w", err)
	}

	var enc domain.Encounter
	if err := json.Unmarshal([]byte(document), &enc); err != nil {
		return domain.Encounter{}, fmt.Errorf("unmarshal encounter: %w", err)
	}
	// The version column is authoritative over the document copy.
	enc.Version = version
	return enc, nil
}

// Save persists a mutated encounter conditionally on its loaded version.
func (s *Store) Save(ctx context.Context, enc domain.Encounter) (domain.Encounter, error) {
	loadedVersion := enc.Version
	enc.Version = loadedVersion + 1

	document, err := json.Marshal(enc)
	if err != nil {
		return domain.Encounter{}, fmt.Errorf("marshal encounter: %w", err)
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE encounters
SET owner_id = ?, version = ?, document = ?, updated_at = ?
WHERE id = ? AND version = ?
`, enc.OwnerID, enc.Version, string(document), toMillis(enc.UpdatedAt), enc.ID, loadedVersion)
	if err != nil {
		return domain.Encounter{}, fmt.Errorf("save encounter: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Encounter{}, fmt.Errorf("save encounter rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		row := s.sqlDB.QueryRowContext(ctx, "SELECT 1 FROM encounters WHERE id = ?", enc.ID)
		if scanErr := row.Scan(&exists); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return domain.Encounter{}, storage.ErrNotFound
			}
			return domain.Encounter{}, fmt.Errorf("check encounter existence: %w", scanErr)
		}
		return domain.Encounter{}, storage.ErrVersionConflict
	}

	return enc, nil
}

// ListByOwner returns all encounters owned by a user, oldest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]domain.Encounter, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT document, version FROM encounters WHERE owner_id = ? ORDER BY created_at ASC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list encounters: %w", err)
	}
	defer rows.Close()

	var encounters []domain.Encounter
	for rows.Next() {
		var (
			document string
			version  int64
		)
		if err := rows.Scan(&document, &version); err != nil {
			return nil, fmt.Errorf("scan encounter: %w", err)
		}
		var enc domain.Encounter
		if err := json.Unmarshal([]byte(document), &enc); err != nil {
			return nil, fmt.Errorf("unmarshal encounter: %w", err)
		}
		enc.Version = version
		encounters = append(encounters, enc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate encounters: %w", err)
	}
	return encounters, nil
}
