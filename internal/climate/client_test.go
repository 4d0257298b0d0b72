package climate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverscapes/qris/pkg/types"
)

func testZone() types.Geometry {
	return types.NewPolygon(types.Ring{
		{-114, 44}, {-113, 44}, {-113, 45}, {-114, 45}, {-114, 44},
	})
}

func TestTimeseriesRequestShape(t *testing.T) {
	var gotAuth, gotCoordinates string
	var gotVariables []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/timeseries/native/coordinates", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotCoordinates = r.URL.Query().Get("coordinates")
		gotVariables = r.URL.Query()["variable"]
		json.NewEncoder(w).Encode([]map[string]any{
			{"Data": []map[string]any{
				{"Date": "2024-01-01", "pr (mm)": 1.5},
				{"Date": "2024-01-02", "pr (mm)": 0.25},
			}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key")
	observations, err := client.Timeseries(context.Background(), TimeseriesRequest{
		Dataset:     "GRIDMET",
		Variables:   []string{"pr"},
		StartDate:   "2024-01-01",
		EndDate:     "2024-01-02",
		AreaReducer: "mean",
		Geometry:    testZone(),
	})
	require.NoError(t, err)

	// The key travels bare, no Bearer prefix.
	assert.Equal(t, "secret-key", gotAuth)
	assert.Equal(t, []string{"pr"}, gotVariables)
	// The zone's exterior ring gains one extra bracket level.
	assert.Equal(t,
		"[[[[-114,44],[-113,44],[-113,45],[-114,45],[-114,44]]]]",
		gotCoordinates)

	require.Len(t, observations, 2)
	assert.Equal(t, "2024-01-01", observations[0].Date)
	assert.Equal(t, "pr", observations[0].Variable)
	assert.Equal(t, 1.5, observations[0].Value)
	assert.Equal(t, "mm", observations[0].Units)
}

func TestTimeseriesRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "wrong")
	_, err := client.Timeseries(context.Background(), TimeseriesRequest{
		Dataset: "GRIDMET", Variables: []string{"pr"}, Geometry: testZone(),
	})
	var remote *types.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusUnauthorized, remote.StatusCode)
}

func TestTimeseriesSkipsMalformedRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"Data": []map[string]any{
				{"Date": "2024-01-01", "pr (mm)": 1.0},
				{"pr (mm)": 2.0},         // no date
				{"Date": "2024-01-03"},   // no value
				{"Date": "2024-01-04", "pr (mm)": "n/a"}, // non-numeric
			}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	observations, err := client.Timeseries(context.Background(), TimeseriesRequest{
		Dataset: "GRIDMET", Variables: []string{"pr"}, Geometry: testZone(),
	})
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "2024-01-01", observations[0].Date)
}

func TestDatasetDates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/metadata/dataset_dates", r.URL.Path)
		require.Equal(t, "GRIDMET", r.URL.Query().Get("dataset"))
		json.NewEncoder(w).Encode(map[string]string{"min": "1979-01-01", "max": "2024-06-30"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	min, max, err := client.DatasetDates(context.Background(), "GRIDMET")
	require.NoError(t, err)
	assert.Equal(t, "1979-01-01", min)
	assert.Equal(t, "2024-06-30", max)
}

func TestDatasetVariables(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/metadata/dataset_variables", r.URL.Path)
		json.NewEncoder(w).Encode([]Variable{
			{Name: "pr", Description: "Precipitation", Units: "mm"},
			{Name: "tmmx", Description: "Max temperature", Units: "K"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	variables, err := client.DatasetVariables(context.Background(), "GRIDMET")
	require.NoError(t, err)
	require.Len(t, variables, 2)
	assert.Equal(t, "pr", variables[0].Name)
}

func TestEncodeCoordinatesMultiPolygon(t *testing.T) {
	geom := types.NewMultiPolygon(
		[]types.Ring{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		[]types.Ring{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}},
	)
	coordinates, err := encodeCoordinates(geom)
	require.NoError(t, err)
	assert.Equal(t,
		"[[[[0,0],[1,0],[1,1],[0,0]],[[5,5],[6,5],[6,6],[5,5]]]]",
		coordinates)
}

func TestEncodeCoordinatesRejectsPoints(t *testing.T) {
	geom := types.Geometry{Type: types.GeomPoint, Coordinates: json.RawMessage("[1,2]")}
	_, err := encodeCoordinates(geom)
	require.Error(t, err)
}

func TestTimeseriesPivotsValueColumns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"tmmn", "tmmx"}, r.URL.Query()["variable"])
		json.NewEncoder(w).Encode([]map[string]any{
			{"Data": []map[string]any{
				{"Date": "2024-01-01", "tmmn (K)": 270.1, "tmmx (K)": 285.4},
			}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	observations, err := client.Timeseries(context.Background(), TimeseriesRequest{
		Dataset: "GRIDMET", Variables: []string{"tmmn", "tmmx"}, Geometry: testZone(),
	})
	require.NoError(t, err)

	// One observation per value column, in column order.
	require.Len(t, observations, 2)
	assert.Equal(t, "tmmn", observations[0].Variable)
	assert.Equal(t, 270.1, observations[0].Value)
	assert.Equal(t, "K", observations[0].Units)
	assert.Equal(t, "tmmx", observations[1].Variable)
	assert.Equal(t, 285.4, observations[1].Value)
}
