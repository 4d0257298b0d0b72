// Package climate downloads zonal time series from the Climate Engine
// service and files them into a project store.
package climate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/riverscapes/qris/internal/common"
	"github.com/riverscapes/qris/pkg/types"
)

// DefaultBaseURL is the production Climate Engine API endpoint.
const DefaultBaseURL = "https://api.climateengine.org"

// SourceURL is the value recorded on every downloaded series.
const SourceURL = "https://www.climateengine.org/"

// SourceName labels downloaded series in the store.
const SourceName = "Climate Engine"

// Client calls the Climate Engine REST API. The API key travels in a bare
// Authorization header, no scheme prefix.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a client for the given endpoint. An empty baseURL
// selects the production service.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	transport := &http.Transport{
		MaxIdleConns:        8,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second, Transport: transport},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// get performs one authorized GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("building climate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling climate service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &types.RemoteError{StatusCode: resp.StatusCode, URL: c.baseURL + path}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding climate response: %w", err)
	}
	return nil
}

// DatasetDates returns the available date range of a dataset.
func (c *Client) DatasetDates(ctx context.Context, dataset string) (min, max string, err error) {
	var out struct {
		Min string `json:"min"`
		Max string `json:"max"`
	}
	query := url.Values{"dataset": {dataset}}
	if err := c.get(ctx, "/metadata/dataset_dates", query, &out); err != nil {
		return "", "", err
	}
	return out.Min, out.Max, nil
}

// Variable describes one downloadable variable of a dataset.
type Variable struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Units       string `json:"units"`
}

// DatasetVariables lists the variables a dataset offers.
func (c *Client) DatasetVariables(ctx context.Context, dataset string) ([]Variable, error) {
	var out []Variable
	query := url.Values{"dataset": {dataset}}
	if err := c.get(ctx, "/metadata/dataset_variables", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TimeseriesRequest selects one zonal download. Several variables can
// travel in one request; the service answers with one value column per
// variable.
type TimeseriesRequest struct {
	Dataset     string
	Variables   []string
	StartDate   string
	EndDate     string
	AreaReducer string
	// Geometry supplies the zone; its exterior rings become the
	// coordinates parameter.
	Geometry types.Geometry
}

// Observation is one dated value of a downloaded variable.
type Observation struct {
	Date     string
	Variable string
	Value    float64
	Units    string
}

// timeseriesResponse mirrors the service's wire shape: one element per
// requested zone, each carrying dated rows whose value column is named
// "<variable> (<units>)".
type timeseriesResponse []struct {
	Data []map[string]any `json:"Data"`
}

// Timeseries downloads dated values of the requested variables reduced
// over the geometry. Each value column of the response pivots into its
// own observations. An empty result is not an error; callers decide how
// to treat zones with no data.
func (c *Client) Timeseries(ctx context.Context, req TimeseriesRequest) ([]Observation, error) {
	coordinates, err := encodeCoordinates(req.Geometry)
	if err != nil {
		return nil, err
	}
	query := url.Values{
		"dataset":      {req.Dataset},
		"variable":     req.Variables,
		"start_date":   {req.StartDate},
		"end_date":     {req.EndDate},
		"area_reducer": {req.AreaReducer},
		"coordinates":  {coordinates},
	}

	var out timeseriesResponse
	if err := c.get(ctx, "/timeseries/native/coordinates", query, &out); err != nil {
		return nil, err
	}

	var observations []Observation
	for _, zone := range out {
		for _, row := range zone.Data {
			parsed := parseRow(row)
			if len(parsed) == 0 {
				common.Logger().Debug("climate: skipping malformed row", "row", row)
				continue
			}
			observations = append(observations, parsed...)
		}
	}
	return observations, nil
}

// encodeCoordinates serializes the zone's exterior rings with the extra
// bracket level the coordinates endpoint expects: "[<rings JSON>]".
func encodeCoordinates(geom types.Geometry) (string, error) {
	rings, err := geom.Rings()
	if err != nil {
		return "", fmt.Errorf("preparing zone coordinates: %w", err)
	}
	raw, err := json.Marshal(rings)
	if err != nil {
		return "", fmt.Errorf("encoding zone coordinates: %w", err)
	}
	return "[" + string(raw) + "]", nil
}

// parseRow pivots one response row into an observation per value column.
// Column names carry the variable plus its units in a trailing
// parenthetical, "pr (mm)". Columns are walked in sorted order so output
// is deterministic. A row without a Date or without any numeric column
// yields nothing.
func parseRow(row map[string]any) []Observation {
	date, ok := row["Date"].(string)
	if !ok {
		return nil
	}

	columns := make([]string, 0, len(row))
	for column := range row {
		if column != "Date" {
			columns = append(columns, column)
		}
	}
	sort.Strings(columns)

	var out []Observation
	for _, column := range columns {
		value, ok := row[column].(float64)
		if !ok {
			continue
		}
		obs := Observation{Date: date, Variable: column, Value: value}
		if variable, units, found := strings.Cut(column, " ("); found {
			obs.Variable = variable
			obs.Units = strings.TrimSuffix(units, ")")
		}
		out = append(out, obs)
	}
	return out
}
