package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverscapes/qris/pkg/types"
)

// newTestStore initializes a fresh project store in a temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "test.gpkg"))
	_, err := s.Initialize(context.Background(), "Test Project", "a test", nil)
	require.NoError(t, err)
	return s
}

func TestApplyMigrationsFreshFile(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "fresh.gpkg"))

	messages, err := s.ApplyMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, messages, len(builtinMigrations()))

	applied, err := s.AppliedMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, applied, len(builtinMigrations()))
	for i, m := range builtinMigrations() {
		assert.Equal(t, m.ID, applied[i])
	}
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	messages, err := s.ApplyMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, messages, "second run should apply nothing")
}

func TestApplyMigrationsRefusesNewerFile(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	db, err := s.open(ctx)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.ExecContext(ctx,
		"INSERT INTO migrations (file_name, applied_at) VALUES ('99991231_235959_from_the_future', datetime('now'))")
	require.NoError(t, err)

	_, err = s.ApplyMigrations(ctx)
	require.ErrorIs(t, err, types.ErrUnknownMigration)
}

func TestMigrationsCreateCatalogTables(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	db, err := s.open(ctx)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"gpkg_spatial_ref_sys", "gpkg_contents", "gpkg_geometry_columns"} {
		var name string
		err := db.GetContext(ctx, &name,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		assert.NoError(t, err, table)
	}

	// The observation classes register themselves as feature layers.
	var count int
	err = db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM gpkg_contents WHERE table_name IN ('dce_points', 'dce_lines', 'dce_polygons')")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("initialized store is valid", func(t *testing.T) {
		s := newTestStore(t)
		assert.NoError(t, s.Validate(ctx))
	})

	t.Run("missing file", func(t *testing.T) {
		s := New(filepath.Join(t.TempDir(), "nope.gpkg"))
		assert.ErrorIs(t, s.Validate(ctx), types.ErrInvalidProjectStore)
	})

	t.Run("database without projects table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.gpkg")
		db, err := sqlx.Open("sqlite", path)
		require.NoError(t, err)
		_, err = db.Exec("CREATE TABLE unrelated (id INTEGER)")
		require.NoError(t, err)
		require.NoError(t, db.Close())

		assert.ErrorIs(t, New(path).Validate(ctx), types.ErrInvalidProjectStore)
	})

	t.Run("schema without project row", func(t *testing.T) {
		s := New(filepath.Join(t.TempDir(), "norow.gpkg"))
		_, err := s.ApplyMigrations(ctx)
		require.NoError(t, err)
		assert.ErrorIs(t, s.Validate(ctx), types.ErrInvalidProjectStore)
	})
}

func TestInitializeRefusesExistingFile(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Initialize(context.Background(), "Again", "", nil)
	require.Error(t, err)
}
