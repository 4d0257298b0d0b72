package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riverscapes/qris/pkg/types"
)

// Initialize creates a new project store at the store's path: an empty
// database brought current by the migration engine with the projects
// singleton row inserted. Fails if the file already exists.
func (s *Store) Initialize(ctx context.Context, name, description string, metadata map[string]string) (*types.Project, error) {
	if _, err := os.Stat(s.path); err == nil {
		return nil, fmt.Errorf("project file %s already exists", s.path)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating project directory: %w", err)
	}

	if _, err := s.ApplyMigrations(ctx); err != nil {
		os.Remove(s.path)
		return nil, err
	}

	if metadata == nil {
		metadata = map[string]string{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encoding project metadata: %w", err)
	}
	mapGUID := uuid.NewString()

	var id int64
	err = s.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO projects (name, description, map_guid, metadata, created_on) VALUES (?, ?, ?, ?, datetime('now'))",
			name, nullable(description), mapGUID, string(metaJSON))
		if err != nil {
			return fmt.Errorf("inserting project row: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	return &types.Project{
		ID:          id,
		Name:        name,
		Description: description,
		MapGUID:     mapGUID,
		Metadata:    metadata,
		ProjectFile: s.path,
	}, nil
}

// nullable maps empty strings to NULL, matching how the forms persist
// optional text fields.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
