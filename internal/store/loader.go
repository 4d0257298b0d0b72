package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riverscapes/qris/pkg/types"
)

// Row shapes mirror the table columns; they exist so the loader can scan
// with sqlx and hydrate the clean types in pkg/types.

type projectRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	MapGUID     sql.NullString `db:"map_guid"`
	Metadata    sql.NullString `db:"metadata"`
}

type sampleFrameRow struct {
	ID              int64          `db:"id"`
	Name            string         `db:"name"`
	Description     sql.NullString `db:"description"`
	SampleFrameType string         `db:"sample_frame_type"`
	Metadata        sql.NullString `db:"metadata"`
}

type layerRow struct {
	ID        int64          `db:"id"`
	MachineID string         `db:"machine_id"`
	Name      string         `db:"name"`
	GeomType  string         `db:"geom_type"`
	FCName    string         `db:"fc_name"`
	IsLookup  bool           `db:"is_lookup"`
	Metadata  sql.NullString `db:"metadata"`
}

type eventRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	EventType   string         `db:"event_type"`
	StartDate   sql.NullString `db:"start_date"`
	EndDate     sql.NullString `db:"end_date"`
	Metadata    sql.NullString `db:"metadata"`
}

type eventLayerRow struct {
	ID      int64 `db:"id"`
	EventID int64 `db:"event_id"`
	LayerID int64 `db:"layer_id"`
}

type rasterRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Path         string         `db:"path"`
	RasterTypeID int64          `db:"raster_type_id"`
	IsContext    bool           `db:"is_context"`
	Date         sql.NullString `db:"date"`
}

type metricRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	MachineName string         `db:"machine_name"`
	Description sql.NullString `db:"description"`
	DefaultUnit sql.NullString `db:"default_unit"`
}

type analysisRow struct {
	ID            int64          `db:"id"`
	Name          string         `db:"name"`
	Description   sql.NullString `db:"description"`
	SampleFrameID int64          `db:"sample_frame_id"`
}

type analysisMetricRow struct {
	AnalysisID int64 `db:"analysis_id"`
	MetricID   int64 `db:"metric_id"`
	LevelID    int64 `db:"level_id"`
}

type attachmentRow struct {
	ID             int64          `db:"attachment_id"`
	DisplayLabel   string         `db:"display_label"`
	AttachmentType string         `db:"attachment_type"`
	Path           string         `db:"path"`
	Description    sql.NullString `db:"description"`
	Metadata       sql.NullString `db:"metadata"`
}

type profileRow struct {
	ID            int64  `db:"id"`
	Name          string `db:"name"`
	ProfileTypeID int64  `db:"profile_type_id"`
}

type crossSectionRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type pourPointRow struct {
	FID  int64  `db:"fid"`
	Name string `db:"name"`
}

type scratchVectorRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	FCName       string `db:"fc_name"`
	VectorTypeID int64  `db:"vector_type_id"`
}

type timeSeriesRow struct {
	ID       int64          `db:"id"`
	Name     string         `db:"name"`
	Source   sql.NullString `db:"source"`
	URL      sql.NullString `db:"url"`
	Metadata sql.NullString `db:"metadata"`
}

// lookupTables are loaded into Project.Lookups by name.
var lookupTables = []string{
	"lkp_event_types",
	"lkp_raster_types",
	"lkp_scratch_vector_types",
}

// LoadProject materializes the project object graph: the singleton row
// plus one map per top-level table, keyed by id. No cursor survives the
// call; the store is closed when it returns.
func (s *Store) LoadProject(ctx context.Context) (*types.Project, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var pr projectRow
	err = db.GetContext(ctx, &pr,
		"SELECT id, name, description, map_guid, metadata FROM projects LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("%w: reading project row: %v", types.ErrInvalidProjectStore, err)
	}

	project := &types.Project{
		ID:          pr.ID,
		Name:        pr.Name,
		Description: pr.Description.String,
		MapGUID:     pr.MapGUID.String,
		Metadata:    decodeStringMap(pr.Metadata),
		ProjectFile: s.path,
	}

	if project.Layers, err = loadLayers(ctx, db); err != nil {
		return nil, err
	}
	if project.SampleFrames, err = loadSampleFrames(ctx, db); err != nil {
		return nil, err
	}
	if project.Events, err = loadEvents(ctx, db, project.Layers); err != nil {
		return nil, err
	}
	if project.Rasters, err = loadRasters(ctx, db); err != nil {
		return nil, err
	}
	if project.Metrics, err = loadMetrics(ctx, db); err != nil {
		return nil, err
	}
	if project.Analyses, err = loadAnalyses(ctx, db, project.Metrics); err != nil {
		return nil, err
	}
	if project.Attachments, err = loadAttachments(ctx, db); err != nil {
		return nil, err
	}
	if project.Profiles, err = loadProfiles(ctx, db); err != nil {
		return nil, err
	}
	if project.CrossSections, err = loadCrossSections(ctx, db); err != nil {
		return nil, err
	}
	if project.PourPoints, err = loadPourPoints(ctx, db); err != nil {
		return nil, err
	}
	if project.ScratchVectors, err = loadScratchVectors(ctx, db); err != nil {
		return nil, err
	}
	if project.TimeSeries, err = loadTimeSeries(ctx, db); err != nil {
		return nil, err
	}
	if project.Lookups, err = loadLookups(ctx, db); err != nil {
		return nil, err
	}

	return project, nil
}

func loadLayers(ctx context.Context, db *sqlx.DB) (map[int64]*types.Layer, error) {
	var rows []layerRow
	err := db.SelectContext(ctx, &rows,
		"SELECT id, machine_id, name, geom_type, fc_name, is_lookup, metadata FROM layers")
	if err != nil {
		return nil, fmt.Errorf("loading layers: %w", err)
	}
	out := make(map[int64]*types.Layer, len(rows))
	for _, r := range rows {
		out[r.ID] = &types.Layer{
			ID:        r.ID,
			MachineID: r.MachineID,
			Name:      r.Name,
			GeomType:  r.GeomType,
			FCName:    r.FCName,
			IsLookup:  r.IsLookup,
			Metadata:  decodeAnyMap(r.Metadata),
		}
	}
	return out, nil
}

func loadSampleFrames(ctx context.Context, db *sqlx.DB) (map[int64]*types.SampleFrame, error) {
	var rows []sampleFrameRow
	err := db.SelectContext(ctx, &rows,
		"SELECT id, name, description, sample_frame_type, metadata FROM sample_frames")
	if err != nil {
		return nil, fmt.Errorf("loading sample frames: %w", err)
	}
	out := make(map[int64]*types.SampleFrame, len(rows))
	for _, r := range rows {
		out[r.ID] = &types.SampleFrame{
			ID:              r.ID,
			Name:            r.Name,
			Description:     r.Description.String,
			SampleFrameType: r.SampleFrameType,
			Metadata:        decodeAnyMap(r.Metadata),
		}
	}
	return out, nil
}

func loadEvents(ctx context.Context, db *sqlx.DB, layers map[int64]*types.Layer) (map[int64]*types.Event, error) {
	var rows []eventRow
	err := db.SelectContext(ctx, &rows,
		"SELECT id, name, description, event_type, start_date, end_date, metadata FROM events")
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	out := make(map[int64]*types.Event, len(rows))
	for _, r := range rows {
		out[r.ID] = &types.Event{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description.String,
			EventType:   r.EventType,
			StartDate:   r.StartDate.String,
			EndDate:     r.EndDate.String,
			Metadata:    decodeAnyMap(r.Metadata),
		}
	}

	var layerRows []eventLayerRow
	err = db.SelectContext(ctx, &layerRows,
		"SELECT id, event_id, layer_id FROM event_layers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("loading event layers: %w", err)
	}
	for _, r := range layerRows {
		event, ok := out[r.EventID]
		if !ok {
			continue
		}
		event.EventLayers = append(event.EventLayers, &types.EventLayer{
			ID:      r.ID,
			EventID: r.EventID,
			LayerID: r.LayerID,
			Layer:   layers[r.LayerID],
		})
	}
	return out, nil
}

func loadRasters(ctx context.Context, db *sqlx.DB) (map[int64]*types.Raster, error) {
	var rows []rasterRow
	err := db.SelectContext(ctx, &rows,
		"SELECT id, name, path, raster_type_id, is_context, date FROM rasters")
	if err != nil {
		return nil, fmt.Errorf("loading rasters: %w", err)
	}
	out := make(map[int64]*types.Raster, len(rows))
	for _, r := range rows {
		out[r.ID] = &types.Raster{
			ID:           r.ID,
			Name:         r.Name,
			Path:         r.Path,
			RasterTypeID: r.RasterTypeID,
			IsContext:    r.IsContext,
			Date:         r.Date.String,
		}
	}
	return out, nil
}

func loadMetrics(ctx context.Context, db *sqlx.DB) (map[int64]*types.Metric, error) {
	var rows []metricRow
	err := db.SelectContext(ctx, &rows,
		"SELECT id, name, machine_name, description, default_unit FROM metrics")
	if err != nil {
		return nil, fmt.Errorf("loading metrics: %w", err)
	}
	out := make(map[int64]*types.Metric, len(rows))
	for _, r := range rows {
		out[r.ID] = &types.Metric{
			ID:          r.ID,
			Name:        r.Name,
			MachineName: r.MachineName,
			Description: r.Description.String,
			DefaultUnit: r.DefaultUnit.String,
		}
	}
	return out, nil
}

func loadAnalyses(ctx context.Context, db *sqlx.DB, metrics map[int64]*types.Metric) (map[int64]*types.Analysis, error) {
	var rows []analysisRow
	err := db.SelectContext(ctx, &rows,
		"SELECT id, name, description, sample_frame_id FROM analyses")
	if err != nil {
		return nil, fmt.Errorf("loading analyses: %w", err)
	}
	out := make(map[int64]*types.Analysis, len(rows))
	for _, r := range rows {
		out[r.ID] = &types.Analysis{
			ID:            r.ID,
			Name:          r.Name,
			Description:   r.Description.String,
			SampleFrameID: r.SampleFrameID,
			Metrics:       make(map[int64]*types.AnalysisMetric),
		}
	}

	var metricRows []analysisMetricRow
	err = db.SelectContext(ctx, &metricRows,
		"SELECT analysis_id, metric_id, level_id FROM analysis_metrics")
	if err != nil {
		return nil, fmt.Errorf("loading analysis metrics: %w", err)
	}
	for _, r := range metricRows {
		analysis, ok := out[r.AnalysisID]
		if !ok {
			continue
		}
		analysis.Metrics[r.MetricID] = &types.AnalysisMetric{
			MetricID: r.MetricID,
			LevelID:  r.LevelID,
			Metric:   metrics[r.MetricID],
		}
	}
	return out, nil
}

func loadAttachments(ctx context.Context, db *sqlx.DB) (map[int64]*types.Attachment, error) {
	var rows []attachmentRow
	err := db.SelectContext(ctx, &rows,
		"SELECT attachment_id, display_label, attachment_type, path, description, metadata FROM attachments")
	if err != nil {
		return nil, fmt.Errorf("loading attachments: %w", err)
	}
	out := make(map[int64]*types.Attachment, len(rows))
	for _, r := range rows {
		out[r.ID] = attachmentFromRow(r)
	}
	return out, nil
}

func loadProfiles(ctx context.Context, db *sqlx.DB) (map[int64]*types.Profile, error) {
	var rows []profileRow
	err := db.SelectContext(ctx, &rows, "SELECT id, name, profile_type_id FROM profiles")
	if err != nil {
		return nil, fmt.Errorf("loading profiles: %w", err)
	}
	out := make(map[int64]*types.Profile, len(rows))
	for _, r := range rows {
		out[r.ID] = &types.Profile{ID: r.ID, Name: r.Name, ProfileTypeID: r.ProfileTypeID}
	}
	return out, nil
}

func loadCrossSections(ctx context.Context, db *sqlx.DB) (map[int64]*types.CrossSection, error) {
	var rows []crossSectionRow
	err := db.SelectContext(ctx, &rows, "SELECT id, name FROM cross_sections")
	if err != nil {
		return nil, fmt.Errorf("loading cross sections: %w", err)
	}
	out := make(map[int64]*types.CrossSection, len(rows))
	for _, r := range rows {
		out[r.ID] = &types.CrossSection{ID: r.ID, Name: r.Name}
	}
	return out, nil
}

func loadPourPoints(ctx context.Context, db *sqlx.DB) (map[int64]*types.PourPoint, error) {
	var rows []pourPointRow
	err := db.SelectContext(ctx, &rows, "SELECT fid, name FROM pour_points")
	if err != nil {
		return nil, fmt.Errorf("loading pour points: %w", err)
	}
	out := make(map[int64]*types.PourPoint, len(rows))
	for _, r := range rows {
		out[r.FID] = &types.PourPoint{ID: r.FID, Name: r.Name}
	}
	return out, nil
}

func loadScratchVectors(ctx context.Context, db *sqlx.DB) (map[int64]*types.ScratchVector, error) {
	var rows []scratchVectorRow
	err := db.SelectContext(ctx, &rows,
		"SELECT id, name, fc_name, vector_type_id FROM scratch_vectors")
	if err != nil {
		return nil, fmt.Errorf("loading scratch vectors: %w", err)
	}
	out := make(map[int64]*types.ScratchVector, len(rows))
	for _, r := range rows {
		out[r.ID] = &types.ScratchVector{
			ID:           r.ID,
			Name:         r.Name,
			FCName:       r.FCName,
			VectorTypeID: r.VectorTypeID,
		}
	}
	return out, nil
}

func loadTimeSeries(ctx context.Context, db *sqlx.DB) (map[int64]*types.TimeSeries, error) {
	var rows []timeSeriesRow
	err := db.SelectContext(ctx, &rows, "SELECT id, name, source, url, metadata FROM time_series")
	if err != nil {
		return nil, fmt.Errorf("loading time series: %w", err)
	}
	out := make(map[int64]*types.TimeSeries, len(rows))
	for _, r := range rows {
		out[r.ID] = &types.TimeSeries{
			ID:       r.ID,
			Name:     r.Name,
			Source:   r.Source.String,
			URL:      r.URL.String,
			Metadata: decodeStringMap(r.Metadata),
		}
	}
	return out, nil
}

func loadLookups(ctx context.Context, db *sqlx.DB) (map[string]map[int64]types.LookupValue, error) {
	out := make(map[string]map[int64]types.LookupValue, len(lookupTables))
	for _, table := range lookupTables {
		var rows []types.LookupValue
		if err := db.SelectContext(ctx, &rows, "SELECT id, name FROM "+table); err != nil {
			return nil, fmt.Errorf("loading lookup table %s: %w", table, err)
		}
		values := make(map[int64]types.LookupValue, len(rows))
		for _, r := range rows {
			values[r.ID] = r
		}
		out[table] = values
	}
	return out, nil
}

// decodeStringMap parses a JSON metadata column into a string map. Null
// and malformed contents yield an empty map; loading never fails over
// cosmetic metadata.
func decodeStringMap(col sql.NullString) map[string]string {
	out := map[string]string{}
	if !col.Valid || col.String == "" {
		return out
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(col.String), &raw); err != nil {
		return out
	}
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

func decodeAnyMap(col sql.NullString) map[string]any {
	if !col.Valid || col.String == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(col.String), &out); err != nil {
		return nil
	}
	return out
}
