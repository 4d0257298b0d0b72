package types

// Sample frame types. AOIs and valley bottoms share the sample_frames table
// and feature class; the type column tells them apart.
const (
	SampleFrameTypeSampleFrame  = "sample_frame"
	SampleFrameTypeAOI          = "aoi"
	SampleFrameTypeValleyBottom = "valley_bottom"
)

// validSampleFrameTypes is the set of recognized sample frame type values.
var validSampleFrameTypes = map[string]bool{
	SampleFrameTypeSampleFrame:  true,
	SampleFrameTypeAOI:          true,
	SampleFrameTypeValleyBottom: true,
}

// ValidSampleFrameType reports whether t is a recognized sample frame type.
func ValidSampleFrameType(t string) bool { return validSampleFrameTypes[t] }

// SampleFrame is a named collection of polygon features used as spatial
// units for aggregation and time-series attachment. Member features live in
// the shared sample_frame_features class, selected by sample_frame_id.
type SampleFrame struct {
	ID              int64
	Name            string
	Description     string
	SampleFrameType string
	Metadata        map[string]any
}

// FeatureClassName returns the feature class that holds this frame's
// member polygons.
func (sf *SampleFrame) FeatureClassName() string { return "sample_frame_features" }

// IDColumnName returns the discriminator column in the feature class.
func (sf *SampleFrame) IDColumnName() string { return "sample_frame_id" }

// SampleFrameFeature is one member polygon of a sample frame.
type SampleFrameFeature struct {
	FID           int64
	SampleFrameID int64
	DisplayLabel  string
	Geometry      Geometry
}
