package types

// Event types. A data capture event records field observations; a design
// records planned structures.
const (
	EventTypeDCE    = "dce"
	EventTypeDesign = "design"
)

// EventTypeLabels maps event type codes to the labels used in export
// manifests.
var EventTypeLabels = map[string]string{
	EventTypeDCE:    "DCE",
	EventTypeDesign: "Design",
}

// Event is a data collection event or design with its set of layers.
type Event struct {
	ID          int64
	Name        string
	Description string
	EventType   string
	StartDate   string
	EndDate     string
	Metadata    map[string]any
	EventLayers []*EventLayer
}

// EventLayer ties an event to one of its observation layers. Features live
// in the shared dce_points/dce_lines/dce_polygons classes discriminated by
// (event_id, event_layer_id).
type EventLayer struct {
	ID      int64
	EventID int64
	LayerID int64
	Layer   *Layer
}

// Layer describes an observation layer definition: which base feature class
// it renders from and which user-defined fields its features carry inside
// the metadata JSON column.
type Layer struct {
	ID        int64
	MachineID string
	Name      string
	GeomType  string
	FCName    string
	IsLookup  bool
	Metadata  map[string]any
}

// LayerField is one entry of a layer's user-defined field schema.
type LayerField struct {
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Fields decodes the layer's field schema from its metadata. Returns nil
// when the layer has no user-defined fields.
func (l *Layer) Fields() []LayerField {
	raw, ok := l.Metadata["fields"].([]any)
	if !ok {
		return nil
	}
	fields := make([]LayerField, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		f := LayerField{}
		if label, ok := m["label"].(string); ok {
			f.Label = label
		}
		if typ, ok := m["type"].(string); ok {
			f.Type = typ
		}
		if f.Label != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// BaseFeatureClass maps a layer geometry type to its DCE feature class.
// Returns "" for geometry types with no observation class.
func BaseFeatureClass(geomType string) string {
	switch geomType {
	case GeomPoint:
		return "dce_points"
	case GeomLineString:
		return "dce_lines"
	case GeomPolygon:
		return "dce_polygons"
	default:
		return ""
	}
}
