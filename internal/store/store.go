// Package store implements the single-file embedded project database: the
// schema and its migration engine, the project loader, the attachment
// registry, time-series persistence, and the spatial view materializer.
//
// The store file is a SQLite database laid out as a GeoPackage: feature
// tables and views are registered in gpkg_contents and
// gpkg_geometry_columns so downstream readers treat them as first-class
// layers. Connections are short-lived; each logical step opens the file,
// does its work, and closes it. The core assumes a single writer per file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/riverscapes/qris/internal/paths"
	"github.com/riverscapes/qris/pkg/types"
)

// Store provides access to one project database file.
type Store struct {
	path string
}

// New returns a store for the given project file. The file is not opened
// until an operation needs it.
func New(path string) *Store {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Store{path: paths.ToPosix(abs)}
}

// Path returns the posix-normalized absolute path of the project file.
func (s *Store) Path() string { return s.path }

// Dir returns the project directory.
func (s *Store) Dir() string { return paths.ToPosix(filepath.Dir(s.path)) }

// open establishes a connection to the project file. Callers own the
// returned handle and must close it when the step completes.
func (s *Store) open(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("opening project store: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return db, nil
}

// withTx runs fn inside a transaction, rolling back on error.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// WithTx exposes a store transaction to collaborating packages. The
// climate ingestion task uses it to commit each feature's writes as one
// unit.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return withTx(ctx, db, fn)
}

// Validate confirms the file exists, opens as a SQLite database, and holds
// the projects singleton row. Returns ErrInvalidProjectStore otherwise.
func (s *Store) Validate(ctx context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("%w: %s does not exist", types.ErrInvalidProjectStore, s.path)
	}

	db, err := s.open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidProjectStore, err)
	}
	defer db.Close()

	var name string
	err = db.GetContext(ctx, &name,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'projects'")
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s has no projects table", types.ErrInvalidProjectStore, s.path)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidProjectStore, err)
	}

	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM projects"); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidProjectStore, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s has no project row", types.ErrInvalidProjectStore, s.path)
	}
	return nil
}
