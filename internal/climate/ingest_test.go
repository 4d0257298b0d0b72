package climate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverscapes/qris/internal/store"
	"github.com/riverscapes/qris/internal/task"
	"github.com/riverscapes/qris/pkg/types"
)

// newIngestFixture initializes a project store holding one sample frame
// with the given number of polygon features.
func newIngestFixture(t *testing.T, featureCount int) (*store.Store, int64) {
	t.Helper()
	ctx := context.Background()
	s := store.New(filepath.Join(t.TempDir(), "climate.gpkg"))
	_, err := s.Initialize(ctx, "Climate Test", "", nil)
	require.NoError(t, err)

	frame := &types.SampleFrame{Name: "Frame", SampleFrameType: types.SampleFrameTypeSampleFrame}
	require.NoError(t, s.InsertSampleFrame(ctx, frame))

	for i := 0; i < featureCount; i++ {
		feature := &types.SampleFrameFeature{
			SampleFrameID: frame.ID,
			Geometry:      testZone(),
		}
		require.NoError(t, s.InsertSampleFrameFeature(ctx, feature))
	}
	return s, frame.ID
}

func climateHandler(respond func(w http.ResponseWriter, call int)) http.HandlerFunc {
	var calls atomic.Int64
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, int(calls.Add(1)))
	}
}

func okResponse(w http.ResponseWriter, values map[string]float64) {
	rows := make([]map[string]any, 0, len(values))
	for date, value := range values {
		rows = append(rows, map[string]any{"Date": date, "pr (mm)": value})
	}
	json.NewEncoder(w).Encode([]map[string]any{{"Data": rows}})
}

func TestIngestFilesOneSeriesForAllFeatures(t *testing.T) {
	ctx := context.Background()
	s, frameID := newIngestFixture(t, 3)

	server := httptest.NewServer(climateHandler(func(w http.ResponseWriter, call int) {
		okResponse(w, map[string]float64{"2024-01-01": float64(call)})
	}))
	defer server.Close()

	ingest := &IngestTask{
		Client:      NewClient(server.URL, "key"),
		Store:       s,
		FrameID:     frameID,
		Dataset:     "GRIDMET",
		Name:        "Precipitation",
		Variables:   []string{"pr"},
		StartDate:   "2024-01-01",
		EndDate:     "2024-01-01",
		AreaReducer: "mean",
	}
	var progress task.Progress
	require.NoError(t, ingest.Run(ctx, &progress))

	percent, _ := progress.Get()
	assert.Equal(t, 100, percent)

	project, err := s.LoadProject(ctx)
	require.NoError(t, err)
	// One download, one series header regardless of feature count.
	require.Len(t, project.TimeSeries, 1)
	for _, series := range project.TimeSeries {
		assert.Equal(t, "Precipitation", series.Name)
		assert.Equal(t, SourceName, series.Source)
		assert.Equal(t, SourceURL, series.URL)
		assert.Equal(t, "GRIDMET", series.Dataset())
		assert.Equal(t, "pr", series.Variable())
		assert.Equal(t, "mm", series.Metadata[types.SeriesMetaUnits])
	}
}

func TestIngestSkipsFeaturesWithNoData(t *testing.T) {
	ctx := context.Background()
	s, frameID := newIngestFixture(t, 2)

	server := httptest.NewServer(climateHandler(func(w http.ResponseWriter, call int) {
		if call == 1 {
			json.NewEncoder(w).Encode([]map[string]any{{"Data": []map[string]any{}}})
			return
		}
		okResponse(w, map[string]float64{"2024-01-01": 2.5})
	}))
	defer server.Close()

	ingest := &IngestTask{
		Client:  NewClient(server.URL, "key"),
		Store:   s,
		FrameID: frameID,
		Dataset: "GRIDMET", Variables: []string{"pr"},
	}
	var progress task.Progress
	require.NoError(t, ingest.Run(ctx, &progress))

	project, err := s.LoadProject(ctx)
	require.NoError(t, err)
	require.Len(t, project.TimeSeries, 1, "series appears only once data arrives")
}

func TestIngestKeepsCompletedFeaturesOnFailure(t *testing.T) {
	ctx := context.Background()
	s, frameID := newIngestFixture(t, 2)

	server := httptest.NewServer(climateHandler(func(w http.ResponseWriter, call int) {
		if call == 1 {
			okResponse(w, map[string]float64{"2024-01-01": 1.0})
			return
		}
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	ingest := &IngestTask{
		Client:  NewClient(server.URL, "key"),
		Store:   s,
		FrameID: frameID,
		Dataset: "GRIDMET", Variables: []string{"pr"},
	}
	var progress task.Progress
	err := ingest.Run(ctx, &progress)
	var remote *types.RemoteError
	require.ErrorAs(t, err, &remote)

	// The first feature's transaction committed before the failure.
	db := store.New(s.Path())
	project, err := db.LoadProject(ctx)
	require.NoError(t, err)
	require.Len(t, project.TimeSeries, 1)
}

func TestIngestHonorsCancellation(t *testing.T) {
	s, frameID := newIngestFixture(t, 2)

	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(climateHandler(func(w http.ResponseWriter, call int) {
		// Cancel after the first feature completes.
		cancel()
		okResponse(w, map[string]float64{"2024-01-01": 1.0})
	}))
	defer server.Close()

	ingest := &IngestTask{
		Client:  NewClient(server.URL, "key"),
		Store:   s,
		FrameID: frameID,
		Dataset: "GRIDMET", Variables: []string{"pr"},
	}
	var progress task.Progress
	err := ingest.Run(ctx, &progress)
	require.ErrorIs(t, err, context.Canceled)
}

func TestIngestFailsOnEmptyFrame(t *testing.T) {
	s, frameID := newIngestFixture(t, 0)

	ingest := &IngestTask{
		Client:  NewClient("http://unused.invalid", "key"),
		Store:   s,
		FrameID: frameID,
		Dataset: "GRIDMET", Variables: []string{"pr"},
	}
	var progress task.Progress
	require.Error(t, ingest.Run(context.Background(), &progress))
}

func TestIngestPivotsVariablesIntoSeries(t *testing.T) {
	ctx := context.Background()
	s, frameID := newIngestFixture(t, 2)

	server := httptest.NewServer(climateHandler(func(w http.ResponseWriter, call int) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"Data": []map[string]any{
				{"Date": "2024-01-01", "tmmn (K)": 270.0, "tmmx (K)": 285.0},
				{"Date": "2024-01-02", "tmmn (K)": 271.0, "tmmx (K)": 286.0},
			}},
		})
	}))
	defer server.Close()

	ingest := &IngestTask{
		Client:    NewClient(server.URL, "key"),
		Store:     s,
		FrameID:   frameID,
		Name:      "Temperatures",
		Dataset:   "GRIDMET",
		Variables: []string{"tmmn", "tmmx"},
		Descriptions: map[string]string{
			"tmmn": "Min temperature",
			"tmmx": "Max temperature",
		},
	}
	var progress task.Progress
	require.NoError(t, ingest.Run(ctx, &progress))

	project, err := s.LoadProject(ctx)
	require.NoError(t, err)

	// One run, one value column per variable, one series each.
	require.Len(t, project.TimeSeries, 2)
	variables := map[string]string{}
	for _, series := range project.TimeSeries {
		assert.Equal(t, "Temperatures", series.Name)
		assert.Equal(t, "K", series.Metadata[types.SeriesMetaUnits])
		variables[series.Variable()] = series.Metadata[types.SeriesMetaDescription]
	}
	assert.Equal(t, map[string]string{
		"tmmn": "Min temperature",
		"tmmx": "Max temperature",
	}, variables)
}

func TestIngestCommitsWritesAfterCancel(t *testing.T) {
	s, frameID := newIngestFixture(t, 1)

	features, err := s.SampleFrameFeatures(context.Background(), frameID)
	require.NoError(t, err)
	require.Len(t, features, 1)

	ingest := &IngestTask{
		Store:     s,
		FrameID:   frameID,
		Name:      "Precipitation",
		Dataset:   "GRIDMET",
		Variables: []string{"pr"},
		seriesIDs: map[string]int64{},
	}

	// A cancel that lands once the response is in hand must not roll
	// back the feature's write.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	observations := []Observation{
		{Date: "2024-01-01", Variable: "pr", Value: 1.5, Units: "mm"},
	}
	require.NoError(t, ingest.fileObservations(ctx, features[0], observations))

	project, err := s.LoadProject(context.Background())
	require.NoError(t, err)
	require.Len(t, project.TimeSeries, 1)
}
