package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riverscapes/qris/pkg/types"
)

// Insert helpers for project entities. Each sets the entity's id from the
// inserted row. Geometries are stored as GeoJSON text in the geom column.

func encodeGeom(g types.Geometry) (any, error) {
	if g.Type == "" {
		return nil, nil
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encoding geometry: %w", err)
	}
	return string(raw), nil
}

// InsertSampleFrame writes a sample frame of any flavor (plain, AOI,
// valley bottom).
func (s *Store) InsertSampleFrame(ctx context.Context, sf *types.SampleFrame) error {
	if !types.ValidSampleFrameType(sf.SampleFrameType) {
		return fmt.Errorf("unknown sample frame type %q", sf.SampleFrameType)
	}
	return s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO sample_frames (name, description, metadata, sample_frame_type) VALUES (?, ?, ?, ?)",
			sf.Name, nullable(sf.Description), encodeAnyMap(sf.Metadata), sf.SampleFrameType)
		if err != nil {
			return fmt.Errorf("inserting sample frame %q: %w", sf.Name, err)
		}
		sf.ID, err = res.LastInsertId()
		return err
	})
}

// InsertSampleFrameFeature writes one feature polygon of a sample frame.
func (s *Store) InsertSampleFrameFeature(ctx context.Context, f *types.SampleFrameFeature) error {
	geom, err := encodeGeom(f.Geometry)
	if err != nil {
		return err
	}
	return s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO sample_frame_features (sample_frame_id, display_label, geom) VALUES (?, ?, ?)",
			f.SampleFrameID, nullable(f.DisplayLabel), geom)
		if err != nil {
			return fmt.Errorf("inserting sample frame feature: %w", err)
		}
		f.FID, err = res.LastInsertId()
		return err
	})
}

// InsertEvent writes an event and its layer associations in one
// transaction.
func (s *Store) InsertEvent(ctx context.Context, e *types.Event) error {
	return s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO events (name, description, event_type, start_date, end_date, metadata) VALUES (?, ?, ?, ?, ?, ?)",
			e.Name, nullable(e.Description), e.EventType,
			nullable(e.StartDate), nullable(e.EndDate), encodeAnyMap(e.Metadata))
		if err != nil {
			return fmt.Errorf("inserting event %q: %w", e.Name, err)
		}
		if e.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		for _, el := range e.EventLayers {
			el.EventID = e.ID
			res, err := tx.ExecContext(ctx,
				"INSERT INTO event_layers (event_id, layer_id) VALUES (?, ?)",
				el.EventID, el.LayerID)
			if err != nil {
				return fmt.Errorf("inserting event layer: %w", err)
			}
			if el.ID, err = res.LastInsertId(); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertDCEFeature writes one observation feature into the base class for
// its geometry type. Attribute values live under $.attributes of the
// metadata column.
func (s *Store) InsertDCEFeature(ctx context.Context, eventID, eventLayerID int64, geom types.Geometry, attributes map[string]any) (int64, error) {
	fcName := types.BaseFeatureClass(geom.Type)
	if fcName == "" {
		return 0, fmt.Errorf("no observation class for geometry type %q", geom.Type)
	}
	encoded, err := encodeGeom(geom)
	if err != nil {
		return 0, err
	}
	var metadata any
	if len(attributes) > 0 {
		metadata = encodeAnyMap(map[string]any{"attributes": attributes})
	}
	var fid int64
	err = s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (event_id, event_layer_id, geom, metadata) VALUES (?, ?, ?, ?)", fcName),
			eventID, eventLayerID, encoded, metadata)
		if err != nil {
			return fmt.Errorf("inserting %s feature: %w", fcName, err)
		}
		fid, err = res.LastInsertId()
		return err
	})
	return fid, err
}

// InsertLayer registers an observation layer definition.
func (s *Store) InsertLayer(ctx context.Context, l *types.Layer) error {
	return s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var isLookup int
		if l.IsLookup {
			isLookup = 1
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO layers (machine_id, name, geom_type, fc_name, is_lookup, metadata) VALUES (?, ?, ?, ?, ?, ?)",
			l.MachineID, l.Name, l.GeomType, l.FCName, isLookup, encodeAnyMap(l.Metadata))
		if err != nil {
			return fmt.Errorf("inserting layer %q: %w", l.MachineID, err)
		}
		l.ID, err = res.LastInsertId()
		return err
	})
}

// InsertRaster registers a surface or context raster.
func (s *Store) InsertRaster(ctx context.Context, r *types.Raster) error {
	return s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var isContext int
		if r.IsContext {
			isContext = 1
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO rasters (name, path, raster_type_id, is_context, date) VALUES (?, ?, ?, ?, ?)",
			r.Name, r.Path, r.RasterTypeID, isContext, nullable(r.Date))
		if err != nil {
			return fmt.Errorf("inserting raster %q: %w", r.Name, err)
		}
		r.ID, err = res.LastInsertId()
		return err
	})
}

// InsertMetric registers a metric definition.
func (s *Store) InsertMetric(ctx context.Context, m *types.Metric) error {
	return s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO metrics (name, machine_name, description, default_unit) VALUES (?, ?, ?, ?)",
			m.Name, m.MachineName, nullable(m.Description), nullable(m.DefaultUnit))
		if err != nil {
			return fmt.Errorf("inserting metric %q: %w", m.MachineName, err)
		}
		m.ID, err = res.LastInsertId()
		return err
	})
}

// InsertAnalysis writes an analysis and its metric selections in one
// transaction.
func (s *Store) InsertAnalysis(ctx context.Context, a *types.Analysis) error {
	return s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO analyses (name, description, sample_frame_id) VALUES (?, ?, ?)",
			a.Name, nullable(a.Description), a.SampleFrameID)
		if err != nil {
			return fmt.Errorf("inserting analysis %q: %w", a.Name, err)
		}
		if a.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		for metricID, am := range a.Metrics {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO analysis_metrics (analysis_id, metric_id, level_id) VALUES (?, ?, ?)",
				a.ID, metricID, am.LevelID)
			if err != nil {
				return fmt.Errorf("inserting analysis metric %d: %w", metricID, err)
			}
		}
		return nil
	})
}

// InsertMetricValue records a metric reading for one frame feature.
func (s *Store) InsertMetricValue(ctx context.Context, analysisID, featureID, metricID int64, isManual bool, manual, automated float64) error {
	return s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var manualFlag int
		if isManual {
			manualFlag = 1
		}
		_, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO metric_values (analysis_id, sample_frame_feature_id, metric_id, is_manual, manual_value, automated_value) VALUES (?, ?, ?, ?, ?, ?)",
			analysisID, featureID, metricID, manualFlag, manual, automated)
		if err != nil {
			return fmt.Errorf("inserting metric value: %w", err)
		}
		return nil
	})
}

// InsertProfile writes a profile with its features.
func (s *Store) InsertProfile(ctx context.Context, p *types.Profile, features []types.Geometry) error {
	return s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO profiles (name, profile_type_id) VALUES (?, ?)",
			p.Name, p.ProfileTypeID)
		if err != nil {
			return fmt.Errorf("inserting profile %q: %w", p.Name, err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		for _, g := range features {
			geom, err := encodeGeom(g)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				fmt.Sprintf("INSERT INTO %s (profile_id, geom) VALUES (?, ?)", p.FeatureClassName()),
				p.ID, geom)
			if err != nil {
				return fmt.Errorf("inserting profile feature: %w", err)
			}
		}
		return nil
	})
}

// InsertCrossSection writes a cross section with its transect features.
func (s *Store) InsertCrossSection(ctx context.Context, xs *types.CrossSection, features []types.Geometry) error {
	return s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO cross_sections (name) VALUES (?)", xs.Name)
		if err != nil {
			return fmt.Errorf("inserting cross section %q: %w", xs.Name, err)
		}
		if xs.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		for _, g := range features {
			geom, err := encodeGeom(g)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				"INSERT INTO cross_section_features (cross_section_id, geom) VALUES (?, ?)", xs.ID, geom)
			if err != nil {
				return fmt.Errorf("inserting cross section feature: %w", err)
			}
		}
		return nil
	})
}

// InsertPourPoint writes a pour point and its delineated catchment in one
// transaction.
func (s *Store) InsertPourPoint(ctx context.Context, pp *types.PourPoint, point, catchment types.Geometry) error {
	pointGeom, err := encodeGeom(point)
	if err != nil {
		return err
	}
	catchmentGeom, err := encodeGeom(catchment)
	if err != nil {
		return err
	}
	return s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO pour_points (name, geom) VALUES (?, ?)", pp.Name, pointGeom)
		if err != nil {
			return fmt.Errorf("inserting pour point %q: %w", pp.Name, err)
		}
		if pp.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		if catchmentGeom != nil {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO catchments (pour_point_id, geom) VALUES (?, ?)", pp.ID, catchmentGeom)
			if err != nil {
				return fmt.Errorf("inserting catchment: %w", err)
			}
		}
		return nil
	})
}

// InsertScratchVector registers a contextual vector held in the companion
// scratch geopackage.
func (s *Store) InsertScratchVector(ctx context.Context, sv *types.ScratchVector) error {
	return s.exec(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO scratch_vectors (name, fc_name, vector_type_id) VALUES (?, ?, ?)",
			sv.Name, sv.FCName, sv.VectorTypeID)
		if err != nil {
			return fmt.Errorf("inserting scratch vector %q: %w", sv.Name, err)
		}
		sv.ID, err = res.LastInsertId()
		return err
	})
}

// exec opens the store, runs fn in a transaction, and closes.
func (s *Store) exec(ctx context.Context, fn func(context.Context, *sqlx.Tx) error) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		return fn(ctx, tx)
	})
}
