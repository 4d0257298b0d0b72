package store

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverscapes/qris/pkg/types"
)

// viewRegistration reads a view's catalog rows back out of the store.
func viewRegistration(t *testing.T, s *Store, name string) (inContents, inGeomCols bool) {
	t.Helper()
	ctx := context.Background()
	db, err := s.open(ctx)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM gpkg_contents WHERE table_name = ?", name))
	inContents = count > 0
	require.NoError(t, db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM gpkg_geometry_columns WHERE table_name = ?", name))
	inGeomCols = count > 0
	return inContents, inGeomCols
}

func TestCreateSpatialViewRegistersCatalog(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	frame := &types.SampleFrame{Name: "Reaches", SampleFrameType: types.SampleFrameTypeSampleFrame}
	require.NoError(t, s.InsertSampleFrame(ctx, frame))

	spec := DefaultViewSpec("vw_sample_frame_1", "sample_frame_features",
		"sample_frame_id", frame.ID, "POLYGON")
	require.NoError(t, s.CreateSpatialView(ctx, spec))

	inContents, inGeomCols := viewRegistration(t, s, "vw_sample_frame_1")
	assert.True(t, inContents)
	assert.True(t, inGeomCols)

	// Creating the same view again replaces it without duplicating rows.
	require.NoError(t, s.CreateSpatialView(ctx, spec))
	db, err := s.open(ctx)
	require.NoError(t, err)
	defer db.Close()
	var count int
	require.NoError(t, db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM gpkg_contents WHERE table_name = 'vw_sample_frame_1'"))
	assert.Equal(t, 1, count)
}

func TestCreateSpatialViewBrokenSQLRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	spec := ViewSpec{
		Name:     "vw_broken",
		SQL:      "CREATE VIEW vw_broken AS SELECT * FROM no_such_table",
		GeomType: "POLYGON",
	}
	require.Error(t, s.CreateSpatialView(ctx, spec))

	inContents, inGeomCols := viewRegistration(t, s, "vw_broken")
	assert.False(t, inContents, "failed creation must not register the view")
	assert.False(t, inGeomCols)
}

func TestCreateSpatialViewMissingColumnRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	spec := ViewSpec{
		Name:     "vw_broken_column",
		SQL:      "CREATE VIEW vw_broken_column AS SELECT no_such_column FROM sample_frames",
		GeomType: "POLYGON",
	}
	require.Error(t, s.CreateSpatialView(ctx, spec))

	inContents, inGeomCols := viewRegistration(t, s, "vw_broken_column")
	assert.False(t, inContents)
	assert.False(t, inGeomCols)
}

func TestEventLayerViewSpec(t *testing.T) {
	event := &types.Event{ID: 7}
	layer := &types.Layer{
		ID:        3,
		MachineID: "dam_crests",
		GeomType:  types.GeomLineString,
		Metadata: map[string]any{
			"fields": []any{
				map[string]any{"label": "dam_state", "type": "list"},
				map[string]any{"label": "height_m", "type": "float"},
			},
		},
	}

	spec := EventLayerViewSpec(event, layer)
	assert.Equal(t, "vw_dam_crests_7", spec.Name)
	assert.Contains(t, spec.SQL, "FROM dce_lines")
	assert.Contains(t, spec.SQL, "event_id = 7 AND event_layer_id = 3")
	assert.Contains(t, spec.SQL, `json_extract(metadata, '$.attributes.dam_state') AS "dam_state"`)
	assert.Contains(t, spec.SQL, `json_extract(metadata, '$.attributes.height_m') AS "height_m"`)
	assert.Equal(t, "LINESTRING", spec.GeomType)
}

func TestAnalysisViewSpecPivotIsDeterministic(t *testing.T) {
	analysis := &types.Analysis{
		ID:            5,
		SampleFrameID: 2,
		Metrics: map[int64]*types.AnalysisMetric{
			9: {MetricID: 9, Metric: &types.Metric{ID: 9, Name: "Dam Density"}},
			4: {MetricID: 4, Metric: &types.Metric{ID: 4, Name: "Dam Count"}},
		},
	}

	spec := AnalysisViewSpec(analysis)
	assert.Equal(t, "vw_analysis_5", spec.Name)
	// Metric columns come out in ascending metric id regardless of map
	// iteration order.
	countIdx := strings.Index(spec.SQL, `"Dam Count"`)
	densityIdx := strings.Index(spec.SQL, `"Dam Density"`)
	require.Positive(t, countIdx)
	require.Positive(t, densityIdx)
	assert.Less(t, countIdx, densityIdx)

	again := AnalysisViewSpec(analysis)
	assert.Equal(t, spec.SQL, again.SQL)
}

func TestAnalysisViewExecutes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	frame := &types.SampleFrame{Name: "Frame", SampleFrameType: types.SampleFrameTypeSampleFrame}
	require.NoError(t, s.InsertSampleFrame(ctx, frame))
	feature := &types.SampleFrameFeature{SampleFrameID: frame.ID, Geometry: testPolygon()}
	require.NoError(t, s.InsertSampleFrameFeature(ctx, feature))

	metric := &types.Metric{Name: "Dam Count", MachineName: "dam_count"}
	require.NoError(t, s.InsertMetric(ctx, metric))
	analysis := &types.Analysis{
		Name:          "Assessment",
		SampleFrameID: frame.ID,
		Metrics: map[int64]*types.AnalysisMetric{
			metric.ID: {MetricID: metric.ID, LevelID: 1, Metric: metric},
		},
	}
	require.NoError(t, s.InsertAnalysis(ctx, analysis))
	require.NoError(t, s.InsertMetricValue(ctx, analysis.ID, feature.FID, metric.ID, false, 0, 12))

	require.NoError(t, s.CreateSpatialView(ctx, AnalysisViewSpec(analysis)))

	db, err := s.open(ctx)
	require.NoError(t, err)
	defer db.Close()
	var value float64
	err = db.GetContext(ctx, &value,
		fmt.Sprintf(`SELECT "Dam Count" FROM vw_analysis_%d`, analysis.ID))
	require.NoError(t, err)
	assert.Equal(t, 12.0, value)
}

func TestRefreshSpatialViewsSweepsStale(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	aoi := &types.SampleFrame{Name: "AOI", SampleFrameType: types.SampleFrameTypeAOI}
	require.NoError(t, s.InsertSampleFrame(ctx, aoi))
	profile := &types.Profile{Name: "Main Stem", ProfileTypeID: types.ProfileTypeGeneric}
	require.NoError(t, s.InsertProfile(ctx, profile, nil))

	// A view for an entity that no longer exists.
	require.NoError(t, s.CreateSpatialView(ctx, DefaultViewSpec(
		"vw_aoi_999", "sample_frame_features", "sample_frame_id", 999, "POLYGON")))

	project, err := s.LoadProject(ctx)
	require.NoError(t, err)
	n, err := s.RefreshSpatialViews(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	inContents, _ := viewRegistration(t, s, "vw_aoi_999")
	assert.False(t, inContents, "stale view should be swept")
	inContents, inGeomCols := viewRegistration(t, s, fmt.Sprintf("vw_aoi_%d", aoi.ID))
	assert.True(t, inContents)
	assert.True(t, inGeomCols)
}
