// Library-level lifecycle test: a project goes from creation through
// climate ingestion and export, then reloads intact.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverscapes/qris/internal/climate"
	"github.com/riverscapes/qris/internal/export"
	"github.com/riverscapes/qris/internal/store"
	"github.com/riverscapes/qris/internal/task"
	"github.com/riverscapes/qris/pkg/types"
)

func studyPolygon() types.Geometry {
	return types.NewPolygon(types.Ring{
		{-114, 44}, {-113, 44}, {-113, 45}, {-114, 45}, {-114, 44},
	})
}

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := store.New(filepath.Join(dir, "project.gpkg"))
	_, err := s.Initialize(ctx, "Lifecycle", "end to end", nil)
	require.NoError(t, err)
	require.NoError(t, s.Validate(ctx))

	// Build out the project.
	aoi := &types.SampleFrame{Name: "Study Area", SampleFrameType: types.SampleFrameTypeAOI}
	require.NoError(t, s.InsertSampleFrame(ctx, aoi))
	require.NoError(t, s.InsertSampleFrameFeature(ctx, &types.SampleFrameFeature{
		SampleFrameID: aoi.ID, Geometry: studyPolygon(),
	}))

	frame := &types.SampleFrame{Name: "Reaches", SampleFrameType: types.SampleFrameTypeSampleFrame}
	require.NoError(t, s.InsertSampleFrame(ctx, frame))
	feature := &types.SampleFrameFeature{
		SampleFrameID: frame.ID, DisplayLabel: "Reach 1", Geometry: studyPolygon(),
	}
	require.NoError(t, s.InsertSampleFrameFeature(ctx, feature))

	// Climate download against a stub service.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "stub-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]map[string]any{
			{"Data": []map[string]any{
				{"Date": "2024-01-01", "pr (mm)": 2.0},
				{"Date": "2024-01-02", "pr (mm)": 0.5},
			}},
		})
	}))
	defer server.Close()

	ingest := &climate.IngestTask{
		Client:    climate.NewClient(server.URL, "stub-key"),
		Store:     s,
		FrameID:   frame.ID,
		Name:      "Precipitation",
		Dataset:   "GRIDMET",
		Variables: []string{"pr"},
		StartDate: "2024-01-01",
		EndDate:   "2024-01-02",
	}
	runner := task.NewRunner(ingest)
	require.NoError(t, runner.Start(ctx))
	require.NoError(t, runner.Wait())
	assert.Equal(t, task.StateSucceeded, runner.State())

	// Export and reload the exported copy.
	exportDir := filepath.Join(dir, "export")
	exporter := &export.Exporter{Store: s, OutputDir: exportDir}
	var progress task.Progress
	require.NoError(t, exporter.Run(ctx, &progress))

	exported := store.New(filepath.Join(exportDir, "qris.gpkg"))
	require.NoError(t, exported.Validate(ctx))
	project, err := exported.LoadProject(ctx)
	require.NoError(t, err)

	assert.Len(t, project.SampleFrames, 2)
	require.Len(t, project.TimeSeries, 1)
	for _, series := range project.TimeSeries {
		assert.Equal(t, "Precipitation", series.Name)
		assert.Equal(t, "Climate Engine", series.Source)
		assert.Equal(t, "pr", series.Variable())
	}
	assert.FileExists(t, filepath.Join(exportDir, "project_bounds.geojson"))
}
