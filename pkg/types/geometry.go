package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// GeoJSON geometry type names used by the store.
const (
	GeomPoint        = "Point"
	GeomLineString   = "LineString"
	GeomPolygon      = "Polygon"
	GeomMultiPolygon = "MultiPolygon"
)

// Coordinate is an [x, y] pair in the feature's CRS.
type Coordinate [2]float64

// X returns the first ordinate (longitude for EPSG:4326).
func (c Coordinate) X() float64 { return c[0] }

// Y returns the second ordinate (latitude for EPSG:4326).
func (c Coordinate) Y() float64 { return c[1] }

// Ring is a closed sequence of coordinates. Rings are stored as provided;
// no closure or winding-order normalization is applied.
type Ring []Coordinate

// Geometry is a GeoJSON geometry. Coordinates are kept raw until a caller
// asks for a typed interpretation, so unsupported geometry types survive a
// load/store round trip untouched.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NewPolygon builds a Polygon geometry from rings. The first ring is the
// exterior.
func NewPolygon(rings ...Ring) Geometry {
	coords, _ := json.Marshal(rings)
	return Geometry{Type: GeomPolygon, Coordinates: coords}
}

// NewMultiPolygon builds a MultiPolygon geometry from per-part ring lists.
func NewMultiPolygon(parts ...[]Ring) Geometry {
	coords, _ := json.Marshal(parts)
	return Geometry{Type: GeomMultiPolygon, Coordinates: coords}
}

// IsZero reports whether the geometry is unset.
func (g Geometry) IsZero() bool { return g.Type == "" }

// Rings extracts the coordinate ring list sent to the climate service:
// a Polygon emits its exterior ring, a MultiPolygon emits the exterior ring
// of each part.
func (g Geometry) Rings() ([]Ring, error) {
	switch g.Type {
	case GeomPolygon:
		var rings []Ring
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("decoding polygon coordinates: %w", err)
		}
		if len(rings) == 0 {
			return nil, errors.New("polygon has no rings")
		}
		return []Ring{rings[0]}, nil
	case GeomMultiPolygon:
		var parts [][]Ring
		if err := json.Unmarshal(g.Coordinates, &parts); err != nil {
			return nil, fmt.Errorf("decoding multipolygon coordinates: %w", err)
		}
		out := make([]Ring, 0, len(parts))
		for _, part := range parts {
			if len(part) == 0 {
				continue
			}
			out = append(out, part[0])
		}
		if len(out) == 0 {
			return nil, errors.New("multipolygon has no rings")
		}
		return out, nil
	default:
		return nil, fmt.Errorf("geometry type %q has no rings", g.Type)
	}
}

// Envelope is an axis-aligned bounding box.
type Envelope struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64

	set bool
}

// Extend grows the envelope to include the coordinate.
func (e *Envelope) Extend(c Coordinate) {
	if !e.set {
		e.MinX, e.MaxX = c.X(), c.X()
		e.MinY, e.MaxY = c.Y(), c.Y()
		e.set = true
		return
	}
	e.MinX = math.Min(e.MinX, c.X())
	e.MinY = math.Min(e.MinY, c.Y())
	e.MaxX = math.Max(e.MaxX, c.X())
	e.MaxY = math.Max(e.MaxY, c.Y())
}

// Union grows the envelope to include another envelope.
func (e *Envelope) Union(other Envelope) {
	if !other.set {
		return
	}
	e.Extend(Coordinate{other.MinX, other.MinY})
	e.Extend(Coordinate{other.MaxX, other.MaxY})
}

// IsEmpty reports whether the envelope has seen no coordinates.
func (e Envelope) IsEmpty() bool { return !e.set }

// Centroid returns the center of the envelope.
func (e Envelope) Centroid() Coordinate {
	return Coordinate{(e.MinX + e.MaxX) / 2, (e.MinY + e.MaxY) / 2}
}

// AsPolygon returns the envelope as a closed GeoJSON polygon ring, counter
// clockwise from the southwest corner.
func (e Envelope) AsPolygon() Geometry {
	return NewPolygon(Ring{
		{e.MinX, e.MinY},
		{e.MaxX, e.MinY},
		{e.MaxX, e.MaxY},
		{e.MinX, e.MaxY},
		{e.MinX, e.MinY},
	})
}

// Envelope computes the bounding box of every coordinate in the geometry.
func (g Geometry) Envelope() (Envelope, error) {
	var env Envelope
	if g.IsZero() {
		return env, nil
	}
	var node any
	if err := json.Unmarshal(g.Coordinates, &node); err != nil {
		return env, fmt.Errorf("decoding %s coordinates: %w", g.Type, err)
	}
	extendFromNode(&env, node)
	return env, nil
}

// extendFromNode walks nested coordinate arrays of any depth. A leaf is a
// [x, y, ...] array of numbers.
func extendFromNode(env *Envelope, node any) {
	arr, ok := node.([]any)
	if !ok || len(arr) == 0 {
		return
	}
	if x, ok := arr[0].(float64); ok {
		if len(arr) < 2 {
			return
		}
		y, ok := arr[1].(float64)
		if !ok {
			return
		}
		env.Extend(Coordinate{x, y})
		return
	}
	for _, child := range arr {
		extendFromNode(env, child)
	}
}
