package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/riverscapes/qris/pkg/types"
)

// ObservationEnvelope computes the bounding box of every observation
// feature across the three DCE classes. Features without geometry are
// ignored.
func (s *Store) ObservationEnvelope(ctx context.Context) (types.Envelope, error) {
	var env types.Envelope

	db, err := s.open(ctx)
	if err != nil {
		return env, err
	}
	defer db.Close()

	for _, table := range []string{"dce_points", "dce_lines", "dce_polygons"} {
		var geoms []string
		err := db.SelectContext(ctx, &geoms,
			fmt.Sprintf("SELECT geom FROM %s WHERE geom IS NOT NULL", table))
		if err != nil {
			return env, fmt.Errorf("reading %s geometries: %w", table, err)
		}
		for _, raw := range geoms {
			var geom types.Geometry
			if err := json.Unmarshal([]byte(raw), &geom); err != nil {
				continue
			}
			featureEnv, err := geom.Envelope()
			if err != nil {
				continue
			}
			env.Union(featureEnv)
		}
	}
	return env, nil
}
