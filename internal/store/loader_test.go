package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverscapes/qris/pkg/types"
)

func testPolygon() types.Geometry {
	return types.NewPolygon(types.Ring{
		{-114, 44}, {-113, 44}, {-113, 45}, {-114, 45}, {-114, 44},
	})
}

func TestLoadProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	aoi := &types.SampleFrame{
		Name:            "Study Area",
		Description:     "outer boundary",
		SampleFrameType: types.SampleFrameTypeAOI,
	}
	require.NoError(t, s.InsertSampleFrame(ctx, aoi))

	frame := &types.SampleFrame{
		Name:            "Reaches",
		SampleFrameType: types.SampleFrameTypeSampleFrame,
		Metadata:        map[string]any{"labels": "display_label"},
	}
	require.NoError(t, s.InsertSampleFrame(ctx, frame))
	feature := &types.SampleFrameFeature{
		SampleFrameID: frame.ID,
		DisplayLabel:  "Reach 1",
		Geometry:      testPolygon(),
	}
	require.NoError(t, s.InsertSampleFrameFeature(ctx, feature))

	layer := &types.Layer{
		MachineID: "dam_crests",
		Name:      "Dam Crests",
		GeomType:  types.GeomLineString,
		FCName:    "dce_lines",
		Metadata: map[string]any{
			"fields": []any{map[string]any{"label": "dam_state", "type": "list"}},
		},
	}
	require.NoError(t, s.InsertLayer(ctx, layer))

	event := &types.Event{
		Name:        "Survey 2024",
		EventType:   types.EventTypeDCE,
		StartDate:   "2024-06-01",
		EventLayers: []*types.EventLayer{{LayerID: layer.ID}},
	}
	require.NoError(t, s.InsertEvent(ctx, event))

	raster := &types.Raster{Name: "DEM", Path: "surfaces/dem.tif", RasterTypeID: 1}
	require.NoError(t, s.InsertRaster(ctx, raster))

	metric := &types.Metric{Name: "Dam Count", MachineName: "dam_count", DefaultUnit: "count"}
	require.NoError(t, s.InsertMetric(ctx, metric))

	analysis := &types.Analysis{
		Name:          "2024 Assessment",
		SampleFrameID: frame.ID,
		Metrics:       map[int64]*types.AnalysisMetric{metric.ID: {MetricID: metric.ID, LevelID: 1}},
	}
	require.NoError(t, s.InsertAnalysis(ctx, analysis))

	profile := &types.Profile{Name: "Main Stem", ProfileTypeID: types.ProfileTypeCenterline}
	require.NoError(t, s.InsertProfile(ctx, profile, nil))

	project, err := s.LoadProject(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Test Project", project.Name)
	assert.NotEmpty(t, project.MapGUID)
	assert.Equal(t, s.Path(), project.ProjectFile)

	require.Contains(t, project.SampleFrames, aoi.ID)
	assert.Equal(t, types.SampleFrameTypeAOI, project.SampleFrames[aoi.ID].SampleFrameType)
	require.Len(t, project.AOIs(), 1)

	got := project.SampleFrames[frame.ID]
	assert.Equal(t, "Reaches", got.Name)
	assert.Equal(t, "display_label", got.Metadata["labels"])

	require.Contains(t, project.Events, event.ID)
	loadedEvent := project.Events[event.ID]
	require.Len(t, loadedEvent.EventLayers, 1)
	require.NotNil(t, loadedEvent.EventLayers[0].Layer)
	assert.Equal(t, "dam_crests", loadedEvent.EventLayers[0].Layer.MachineID)
	fields := loadedEvent.EventLayers[0].Layer.Fields()
	require.Len(t, fields, 1)
	assert.Equal(t, "dam_state", fields[0].Label)

	require.Contains(t, project.Rasters, raster.ID)
	assert.Equal(t, "surfaces/dem.tif", project.Rasters[raster.ID].Path)

	require.Contains(t, project.Analyses, analysis.ID)
	loadedAnalysis := project.Analyses[analysis.ID]
	require.Contains(t, loadedAnalysis.Metrics, metric.ID)
	require.NotNil(t, loadedAnalysis.Metrics[metric.ID].Metric)
	assert.Equal(t, "dam_count", loadedAnalysis.Metrics[metric.ID].Metric.MachineName)

	require.Contains(t, project.Profiles, profile.ID)
	assert.Equal(t, "profile_centerlines", project.Profiles[profile.ID].FeatureClassName())

	require.Contains(t, project.Lookups, "lkp_event_types")
	assert.Equal(t, "Design", project.Lookups["lkp_event_types"][2].Name)
}

func TestLoadProjectToleratesMalformedMetadata(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	db, err := s.open(ctx)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		"INSERT INTO sample_frames (name, metadata, sample_frame_type) VALUES ('Broken', '{not json', 'sample_frame')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	project, err := s.LoadProject(ctx)
	require.NoError(t, err)
	require.Len(t, project.SampleFrames, 1)
	for _, sf := range project.SampleFrames {
		assert.Nil(t, sf.Metadata)
	}
}

func TestSampleFrameFeatureGeometryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	frame := &types.SampleFrame{Name: "Frame", SampleFrameType: types.SampleFrameTypeSampleFrame}
	require.NoError(t, s.InsertSampleFrame(ctx, frame))
	original := testPolygon()
	require.NoError(t, s.InsertSampleFrameFeature(ctx, &types.SampleFrameFeature{
		SampleFrameID: frame.ID,
		DisplayLabel:  "A",
		Geometry:      original,
	}))

	features, err := s.SampleFrameFeatures(ctx, frame.ID)
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, types.GeomPolygon, features[0].Geometry.Type)
	assert.JSONEq(t, string(original.Coordinates), string(features[0].Geometry.Coordinates))

	rings, err := features[0].Geometry.Rings()
	require.NoError(t, err)
	require.Len(t, rings, 1)
	assert.Len(t, rings[0], 5)
}
