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

// defaultSRSID is the spatial reference of every project layer.
const defaultSRSID = 4326

// ViewSpec describes one derived spatial view: its name, the full CREATE
// VIEW statement, and the catalog registration attributes.
type ViewSpec struct {
	Name     string
	SQL      string
	GeomType string
	SRSID    int
}

// DefaultViewSpec filters a feature class on a discriminator column.
func DefaultViewSpec(name, fcName, filterColumn string, id int64, geomType string) ViewSpec {
	return ViewSpec{
		Name: name,
		SQL: fmt.Sprintf("CREATE VIEW %s AS SELECT * FROM %s WHERE %s = %d",
			name, fcName, filterColumn, id),
		GeomType: geomType,
		SRSID:    defaultSRSID,
	}
}

// EventLayerViewSpec filters an observation class on (event, layer) and
// projects the layer's user-defined fields out of the metadata JSON
// column. With no field schema the view passes rows through unchanged.
func EventLayerViewSpec(event *types.Event, layer *types.Layer) ViewSpec {
	name := fmt.Sprintf("vw_%s_%d", layer.MachineID, event.ID)
	fcName := types.BaseFeatureClass(layer.GeomType)

	outFields := "*"
	if fields := layer.Fields(); len(fields) > 0 {
		extracted := make([]string, len(fields))
		for i, f := range fields {
			extracted[i] = fmt.Sprintf("json_extract(metadata, '$.attributes.%s') AS \"%s\"", f.Label, f.Label)
		}
		outFields = strings.Join(extracted, ", ")
	}

	return ViewSpec{
		Name: name,
		SQL: fmt.Sprintf(
			"CREATE VIEW %s AS SELECT fid, geom, event_id, event_layer_id, %s, metadata FROM %s WHERE event_id = %d AND event_layer_id = %d",
			name, outFields, fcName, event.ID, layer.ID),
		GeomType: strings.ToUpper(layer.GeomType),
		SRSID:    defaultSRSID,
	}
}

// AnalysisViewSpec pivots the metric-values table into one column per
// selected metric, joined back onto the sample frame features. Metrics
// are emitted in ascending metric id so the statement is deterministic.
// An analysis with no metrics degrades to the plain frame filter.
func AnalysisViewSpec(analysis *types.Analysis) ViewSpec {
	name := fmt.Sprintf("vw_analysis_%d", analysis.ID)

	metricIDs := make([]int64, 0, len(analysis.Metrics))
	for id := range analysis.Metrics {
		metricIDs = append(metricIDs, id)
	}
	sort.Slice(metricIDs, func(i, j int) bool { return metricIDs[i] < metricIDs[j] })

	cases := make([]string, 0, len(metricIDs))
	for _, id := range metricIDs {
		am := analysis.Metrics[id]
		metricName := fmt.Sprintf("metric_%d", id)
		if am.Metric != nil {
			metricName = am.Metric.Name
		}
		cases = append(cases, fmt.Sprintf(
			"MAX(CASE WHEN metric_id = %d THEN (CASE WHEN is_manual = 1 THEN manual_value ELSE automated_value END) END) AS \"%s\"",
			id, metricName))
	}

	var viewSQL string
	if len(cases) == 0 {
		viewSQL = fmt.Sprintf(
			"CREATE VIEW %s AS SELECT * FROM sample_frame_features WHERE sample_frame_id = %d",
			name, analysis.SampleFrameID)
	} else {
		viewSQL = fmt.Sprintf(
			"CREATE VIEW %s AS SELECT * FROM sample_frame_features JOIN "+
				"(SELECT sample_frame_feature_id, %s FROM metric_values WHERE analysis_id = %d GROUP BY sample_frame_feature_id) AS x "+
				"ON sample_frame_features.fid = x.sample_frame_feature_id",
			name, strings.Join(cases, ", "), analysis.ID)
	}

	return ViewSpec{Name: name, SQL: viewSQL, GeomType: "POLYGON", SRSID: defaultSRSID}
}

// CreateSpatialView creates the view and registers it in both GeoPackage
// catalog tables in one transaction. An existing view of the same name is
// dropped and deregistered first, so repeated creation is idempotent.
func (s *Store) CreateSpatialView(ctx context.Context, spec ViewSpec) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return createSpatialViewTx(ctx, db, spec)
}

func createSpatialViewTx(ctx context.Context, db *sqlx.DB, spec ViewSpec) error {
	if spec.SRSID == 0 {
		spec.SRSID = defaultSRSID
	}
	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := dropViewTx(ctx, tx, spec.Name); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, spec.SQL); err != nil {
			return fmt.Errorf("creating view %s: %w", spec.Name, err)
		}
		// SQLite validates view bodies lazily; select from it now so a
		// view over a missing table never reaches the catalog.
		rows, err := tx.QueryContext(ctx, "SELECT * FROM "+spec.Name+" LIMIT 0")
		if err != nil {
			return fmt.Errorf("view %s is not selectable: %w", spec.Name, err)
		}
		rows.Close()
		_, err = tx.ExecContext(ctx,
			"INSERT INTO gpkg_contents (table_name, data_type, identifier, description, srs_id) VALUES (?, 'features', ?, '', ?)",
			spec.Name, spec.Name, spec.SRSID)
		if err != nil {
			return fmt.Errorf("registering %s in gpkg_contents: %w", spec.Name, err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO gpkg_geometry_columns (table_name, column_name, geometry_type_name, srs_id, z, m) VALUES (?, 'geom', ?, ?, 0, 0)",
			spec.Name, spec.GeomType, spec.SRSID)
		if err != nil {
			return fmt.Errorf("registering %s in gpkg_geometry_columns: %w", spec.Name, err)
		}
		return nil
	})
}

// DropSpatialView removes a view and its catalog rows.
func (s *Store) DropSpatialView(ctx context.Context, name string) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		return dropViewTx(ctx, tx, name)
	})
}

func dropViewTx(ctx context.Context, tx *sqlx.Tx, name string) error {
	if _, err := tx.ExecContext(ctx, "DROP VIEW IF EXISTS "+name); err != nil {
		return fmt.Errorf("dropping view %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM gpkg_contents WHERE table_name = ?", name); err != nil {
		return fmt.Errorf("deregistering %s from gpkg_contents: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM gpkg_geometry_columns WHERE table_name = ?", name); err != nil {
		return fmt.Errorf("deregistering %s from gpkg_geometry_columns: %w", name, err)
	}
	return nil
}

// EntityViewSpecs enumerates the derived views for every spatial entity in
// the project, sorted by view name so refreshes and exports are
// deterministic.
func EntityViewSpecs(project *types.Project) []ViewSpec {
	var specs []ViewSpec

	for _, sf := range project.SampleFrames {
		prefix := "vw_sample_frame_"
		switch sf.SampleFrameType {
		case types.SampleFrameTypeAOI:
			prefix = "vw_aoi_"
		case types.SampleFrameTypeValleyBottom:
			prefix = "vw_valley_bottom_"
		}
		specs = append(specs, DefaultViewSpec(
			fmt.Sprintf("%s%d", prefix, sf.ID),
			sf.FeatureClassName(), sf.IDColumnName(), sf.ID, "POLYGON"))
	}
	for _, p := range project.Profiles {
		specs = append(specs, DefaultViewSpec(
			fmt.Sprintf("vw_profile_%d", p.ID),
			p.FeatureClassName(), "profile_id", p.ID, "LINESTRING"))
	}
	for _, xs := range project.CrossSections {
		specs = append(specs, DefaultViewSpec(
			fmt.Sprintf("vw_cross_section_%d", xs.ID),
			"cross_section_features", "cross_section_id", xs.ID, "LINESTRING"))
	}
	for _, pp := range project.PourPoints {
		specs = append(specs, DefaultViewSpec(
			fmt.Sprintf("vw_pour_point_%d", pp.ID), "pour_points", "fid", pp.ID, "POINT"))
		specs = append(specs, DefaultViewSpec(
			fmt.Sprintf("vw_catchment_%d", pp.ID), "catchments", "pour_point_id", pp.ID, "POLYGON"))
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// RefreshSpatialViews drops and recreates every entity view. Stale views
// left by deleted entities are swept first: any registered vw_ row with no
// matching entity spec is removed. Returns the number of views in place.
func (s *Store) RefreshSpatialViews(ctx context.Context, project *types.Project) (int, error) {
	db, err := s.open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	specs := EntityViewSpecs(project)
	wanted := make(map[string]bool, len(specs))
	for _, spec := range specs {
		wanted[spec.Name] = true
	}

	var registered []string
	err = db.SelectContext(ctx, &registered,
		"SELECT table_name FROM gpkg_contents WHERE table_name LIKE 'vw_%'")
	if err != nil {
		return 0, fmt.Errorf("listing registered views: %w", err)
	}

	log := common.Logger()
	for _, name := range registered {
		if wanted[name] {
			continue
		}
		err := withTx(ctx, db, func(tx *sqlx.Tx) error {
			return dropViewTx(ctx, tx, name)
		})
		if err != nil {
			return 0, err
		}
		log.Debug("store: dropped stale view", "view", name)
	}

	for _, spec := range specs {
		if err := createSpatialViewTx(ctx, db, spec); err != nil {
			return 0, err
		}
	}
	return len(specs), nil
}
