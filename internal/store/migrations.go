package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riverscapes/qris/internal/common"
	"github.com/riverscapes/qris/pkg/types"
)

// A Migration is an ordered id plus its declarative steps. Ids follow
// YYYYMMDD_HHMMSS_slug so lexical order is application order.
type Migration struct {
	ID    string
	Steps []Step
}

// Step is one declarative schema change applied inside the migration's
// transaction.
type Step interface {
	describe() string
	apply(ctx context.Context, tx *sqlx.Tx) error
}

type createTable struct {
	name string
	ddl  string
}

func (s createTable) describe() string { return "create table " + s.name }

func (s createTable) apply(ctx context.Context, tx *sqlx.Tx) error {
	_, err := tx.ExecContext(ctx, s.ddl)
	return err
}

type addColumn struct {
	table      string
	column     string
	definition string
}

func (s addColumn) describe() string { return fmt.Sprintf("add column %s.%s", s.table, s.column) }

func (s addColumn) apply(ctx context.Context, tx *sqlx.Tx) error {
	_, err := tx.ExecContext(ctx,
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", s.table, s.column, s.definition))
	return err
}

type createIndex struct {
	name string
	ddl  string
}

func (s createIndex) describe() string { return "create index " + s.name }

func (s createIndex) apply(ctx context.Context, tx *sqlx.Tx) error {
	_, err := tx.ExecContext(ctx, s.ddl)
	return err
}

type seedRows struct {
	table   string
	columns []string
	rows    [][]any
}

func (s seedRows) describe() string { return fmt.Sprintf("seed %d rows into %s", len(s.rows), s.table) }

func (s seedRows) apply(ctx context.Context, tx *sqlx.Tx) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(s.columns)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table, strings.Join(s.columns, ", "), placeholders)
	stmt, err := tx.PreparexContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("preparing seed insert for %s: %w", s.table, err)
	}
	defer stmt.Close()
	for _, row := range s.rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("seeding %s: %w", s.table, err)
		}
	}
	return nil
}

type rawSQL struct {
	summary string
	sql     string
}

func (s rawSQL) describe() string { return s.summary }

func (s rawSQL) apply(ctx context.Context, tx *sqlx.Tx) error {
	_, err := tx.ExecContext(ctx, s.sql)
	return err
}

// registerFeatureClass returns the seed step that records a base feature
// table in both GeoPackage catalog tables.
func registerFeatureClass(table, geomType string) []Step {
	return []Step{
		seedRows{
			table:   "gpkg_contents",
			columns: []string{"table_name", "data_type", "identifier", "description", "srs_id"},
			rows:    [][]any{{table, "features", table, "", defaultSRSID}},
		},
		seedRows{
			table:   "gpkg_geometry_columns",
			columns: []string{"table_name", "column_name", "geometry_type_name", "srs_id", "z", "m"},
			rows:    [][]any{{table, "geom", geomType, defaultSRSID, 0, 0}},
		},
	}
}

// builtinMigrations returns the full migration history in application
// order. New migrations append; existing entries never change once a
// release ships them.
func builtinMigrations() []Migration {
	migrations := []Migration{
		{
			ID: "20211115_104500_initial_schema",
			Steps: append([]Step{
				createTable{"projects", createProjects},
				createTable{"layers", createLayers},
				createTable{"sample_frames", createSampleFrames},
				createTable{"sample_frame_features", createSampleFrameFeatures},
				createTable{"events", createEvents},
				createTable{"event_layers", createEventLayers},
				createTable{"rasters", createRasters},
				createTable{"dce_points", createDcePoints},
				createTable{"dce_lines", createDceLines},
				createTable{"dce_polygons", createDcePolygons},
				createTable{"gpkg_spatial_ref_sys", createGpkgSpatialRefSys},
				createTable{"gpkg_contents", createGpkgContents},
				createTable{"gpkg_geometry_columns", createGpkgGeometryColumns},
				createIndex{"ix_sample_frame_features_frame",
					"CREATE INDEX ix_sample_frame_features_frame ON sample_frame_features(sample_frame_id)"},
				createIndex{"ix_dce_points_event", "CREATE INDEX ix_dce_points_event ON dce_points(event_id, event_layer_id)"},
				createIndex{"ix_dce_lines_event", "CREATE INDEX ix_dce_lines_event ON dce_lines(event_id, event_layer_id)"},
				createIndex{"ix_dce_polygons_event", "CREATE INDEX ix_dce_polygons_event ON dce_polygons(event_id, event_layer_id)"},
				seedRows{
					table:   "gpkg_spatial_ref_sys",
					columns: []string{"srs_name", "srs_id", "organization", "organization_coordsys_id", "definition"},
					rows: [][]any{
						{"WGS 84", defaultSRSID, "EPSG", defaultSRSID, "GEOGCS[\"WGS 84\",DATUM[\"WGS_1984\"]]"},
					},
				},
				createTable{"lkp_event_types", createLkpEventTypes},
				createTable{"lkp_raster_types", createLkpRasterTypes},
				seedRows{
					table:   "lkp_event_types",
					columns: []string{"id", "name"},
					rows:    [][]any{{1, "Data Capture Event"}, {2, "Design"}},
				},
				seedRows{
					table:   "lkp_raster_types",
					columns: []string{"id", "name"},
					rows: [][]any{
						{1, "Digital Elevation Model"}, {2, "Hillshade"},
						{3, "Detrended Surface"}, {4, "Other"},
					},
				},
				seedRows{
					table:   "layers",
					columns: []string{"machine_id", "name", "geom_type", "fc_name", "is_lookup"},
					rows: [][]any{
						{"dce_points", "Observation Points", types.GeomPoint, "dce_points", 0},
						{"dce_lines", "Observation Lines", types.GeomLineString, "dce_lines", 0},
						{"dce_polygons", "Observation Polygons", types.GeomPolygon, "dce_polygons", 0},
					},
				},
			},
				concatSteps(
					registerFeatureClass("sample_frame_features", "POLYGON"),
					registerFeatureClass("dce_points", "POINT"),
					registerFeatureClass("dce_lines", "LINESTRING"),
					registerFeatureClass("dce_polygons", "POLYGON"),
				)...),
		},
		{
			ID: "20220607_143000_metrics_analyses",
			Steps: []Step{
				createTable{"metrics", createMetrics},
				createTable{"metric_values", createMetricValues},
				createTable{"analyses", createAnalyses},
				createTable{"analysis_metrics", createAnalysisMetrics},
				createIndex{"ix_metric_values_feature",
					"CREATE INDEX ix_metric_values_feature ON metric_values(sample_frame_feature_id)"},
			},
		},
		{
			ID: "20230112_091500_profiles_cross_sections",
			Steps: append([]Step{
				createTable{"profiles", createProfiles},
				createTable{"profile_features", createProfileFeatures},
				createTable{"profile_centerlines", createProfileCenterlines},
				createTable{"cross_sections", createCrossSections},
				createTable{"cross_section_features", createCrossSectionFeatures},
				createTable{"pour_points", createPourPoints},
				createTable{"catchments", createCatchments},
				createTable{"scratch_vectors", createScratchVectors},
				createTable{"lkp_scratch_vector_types", createLkpScratchVectorTypes},
				seedRows{
					table:   "lkp_scratch_vector_types",
					columns: []string{"id", "name"},
					rows:    [][]any{{1, "Vector"}, {2, "Imported Vector"}},
				},
			},
				concatSteps(
					registerFeatureClass("profile_features", "LINESTRING"),
					registerFeatureClass("profile_centerlines", "LINESTRING"),
					registerFeatureClass("cross_section_features", "LINESTRING"),
					registerFeatureClass("pour_points", "POINT"),
					registerFeatureClass("catchments", "POLYGON"),
				)...),
		},
		{
			ID: "20231215_113000_time_series",
			Steps: []Step{
				createTable{"time_series", createTimeSeries},
				createTable{"sample_frame_time_series", createSampleFrameTimeSeries},
				createIndex{"ux_sample_frame_time_series",
					"CREATE UNIQUE INDEX ux_sample_frame_time_series ON sample_frame_time_series(sample_frame_fid, time_series_id, time_value)"},
			},
		},
		{
			ID: "20240308_160000_attachments",
			Steps: []Step{
				createTable{"attachments", createAttachments},
				createIndex{"ux_attachments_label",
					"CREATE UNIQUE INDEX ux_attachments_label ON attachments(display_label)"},
				createIndex{"ux_attachments_file_path",
					"CREATE UNIQUE INDEX ux_attachments_file_path ON attachments(path) WHERE attachment_type = 'file'"},
			},
		},
		{
			ID: "20240722_101500_sample_frame_types",
			Steps: []Step{
				addColumn{"sample_frames", "sample_frame_type", "TEXT NOT NULL DEFAULT 'sample_frame'"},
				createIndex{"ix_sample_frames_type",
					"CREATE INDEX ix_sample_frames_type ON sample_frames(sample_frame_type)"},
			},
		},
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].ID < migrations[j].ID })
	return migrations
}

func concatSteps(groups ...[]Step) []Step {
	var out []Step
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS migrations (
    file_name TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);`

// ApplyMigrations brings the store up to the current schema. Each pending
// migration runs in its own transaction; the first failure rolls that
// migration back, reports its id, and aborts the run. Returns one message
// per applied migration; a store that is already current returns none.
func (s *Store) ApplyMigrations(ctx context.Context) ([]string, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("creating migrations table: %w", err)
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, "SELECT file_name FROM migrations"); err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	appliedSet := make(map[string]bool, len(applied))
	for _, id := range applied {
		appliedSet[id] = true
	}

	builtin := builtinMigrations()

	// Refuse stores written by a newer release: any applied id sorting
	// after our highest known migration means the schema is ahead of us.
	highest := builtin[len(builtin)-1].ID
	for _, id := range applied {
		if id > highest {
			return nil, fmt.Errorf("%w: store records migration %s", types.ErrUnknownMigration, id)
		}
	}

	log := common.Logger()
	var messages []string
	for _, migration := range builtin {
		if appliedSet[migration.ID] {
			continue
		}
		err := withTx(ctx, db, func(tx *sqlx.Tx) error {
			for _, step := range migration.Steps {
				if err := step.apply(ctx, tx); err != nil {
					return fmt.Errorf("%s: %w", step.describe(), err)
				}
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO migrations (file_name, applied_at) VALUES (?, datetime('now'))",
				migration.ID)
			return err
		})
		if err != nil {
			return messages, &types.MigrationError{ID: migration.ID, Err: err}
		}
		msg := "applied migration " + migration.ID
		log.Info("store: "+msg, "path", s.path)
		messages = append(messages, msg)
	}
	return messages, nil
}

// AppliedMigrations returns the ids recorded in the migrations table in
// lexical order.
func (s *Store) AppliedMigrations(ctx context.Context) ([]string, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var ids []string
	if err := db.SelectContext(ctx, &ids, "SELECT file_name FROM migrations ORDER BY file_name"); err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	return ids, nil
}
