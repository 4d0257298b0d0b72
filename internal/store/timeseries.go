package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riverscapes/qris/pkg/types"
)

// InsertTimeSeriesTx writes a time-series header row and sets its id.
func InsertTimeSeriesTx(ctx context.Context, tx *sqlx.Tx, ts *types.TimeSeries) error {
	var metadata any
	if len(ts.Metadata) > 0 {
		raw, err := json.Marshal(ts.Metadata)
		if err != nil {
			return fmt.Errorf("encoding time series metadata: %w", err)
		}
		metadata = string(raw)
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO time_series (name, source, url, metadata) VALUES (?, ?, ?, ?)",
		ts.Name, nullable(ts.Source), nullable(ts.URL), metadata)
	if err != nil {
		return fmt.Errorf("inserting time series %q: %w", ts.Name, err)
	}
	ts.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading time series id: %w", err)
	}
	return nil
}

// InsertTimeSeriesPointsTx bulk-inserts observation rows. Re-inserting an
// existing (feature, series, time) triple is ignored, so an ingestion can
// be re-run without duplicating points.
func InsertTimeSeriesPointsTx(ctx context.Context, tx *sqlx.Tx, points []types.TimeSeriesPoint) error {
	stmt, err := tx.PreparexContext(ctx,
		"INSERT OR IGNORE INTO sample_frame_time_series (sample_frame_fid, time_series_id, time_value, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing time series point insert: %w", err)
	}
	defer stmt.Close()
	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.SampleFrameFeatureID, p.TimeSeriesID, p.TimeValue, p.Value); err != nil {
			return fmt.Errorf("inserting time series point: %w", err)
		}
	}
	return nil
}

// SampleFrameFeatures returns the features of one sample frame ordered by
// fid. Each feature's geometry is decoded from its GeoJSON column; rows
// without geometry are skipped.
func (s *Store) SampleFrameFeatures(ctx context.Context, frameID int64) ([]*types.SampleFrameFeature, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	type featureRow struct {
		FID          int64          `db:"fid"`
		DisplayLabel sql.NullString `db:"display_label"`
		Geom         sql.NullString `db:"geom"`
	}
	var rows []featureRow
	err = db.SelectContext(ctx, &rows,
		"SELECT fid, display_label, geom FROM sample_frame_features WHERE sample_frame_id = ? ORDER BY fid",
		frameID)
	if err != nil {
		return nil, fmt.Errorf("loading features of sample frame %d: %w", frameID, err)
	}

	out := make([]*types.SampleFrameFeature, 0, len(rows))
	for _, r := range rows {
		if !r.Geom.Valid || r.Geom.String == "" {
			continue
		}
		var geom types.Geometry
		if err := json.Unmarshal([]byte(r.Geom.String), &geom); err != nil {
			return nil, fmt.Errorf("decoding geometry of feature %d: %w", r.FID, err)
		}
		out = append(out, &types.SampleFrameFeature{
			FID:           r.FID,
			SampleFrameID: frameID,
			DisplayLabel:  r.DisplayLabel.String,
			Geometry:      geom,
		})
	}
	return out, nil
}
