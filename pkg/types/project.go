package types

// Project is the singleton row of a project store plus the materialized
// object graph loaded from it. One project per store file.
type Project struct {
	ID          int64
	Name        string
	Description string
	MapGUID     string
	Metadata    map[string]string

	// ProjectFile is the posix-normalized absolute path of the store file.
	ProjectFile string

	SampleFrames   map[int64]*SampleFrame
	Layers         map[int64]*Layer
	Events         map[int64]*Event
	Rasters        map[int64]*Raster
	Metrics        map[int64]*Metric
	Analyses       map[int64]*Analysis
	Attachments    map[int64]*Attachment
	Profiles       map[int64]*Profile
	CrossSections  map[int64]*CrossSection
	PourPoints     map[int64]*PourPoint
	ScratchVectors map[int64]*ScratchVector
	TimeSeries     map[int64]*TimeSeries

	// Lookups holds the lookup tables keyed by table name, then row id.
	Lookups map[string]map[int64]LookupValue
}

// LookupValue is one row of a lkp_* table.
type LookupValue struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// AOIs returns the sample frames typed as areas of interest.
func (p *Project) AOIs() map[int64]*SampleFrame {
	return p.framesOfType(SampleFrameTypeAOI)
}

// ValleyBottoms returns the sample frames typed as valley bottoms.
func (p *Project) ValleyBottoms() map[int64]*SampleFrame {
	return p.framesOfType(SampleFrameTypeValleyBottom)
}

// PlainSampleFrames returns the sample frames that are neither AOIs nor
// valley bottoms.
func (p *Project) PlainSampleFrames() map[int64]*SampleFrame {
	return p.framesOfType(SampleFrameTypeSampleFrame)
}

func (p *Project) framesOfType(frameType string) map[int64]*SampleFrame {
	out := make(map[int64]*SampleFrame)
	for id, sf := range p.SampleFrames {
		if sf.SampleFrameType == frameType {
			out[id] = sf
		}
	}
	return out
}

// SurfaceRasters returns the non-context rasters.
func (p *Project) SurfaceRasters() map[int64]*Raster {
	out := make(map[int64]*Raster)
	for id, r := range p.Rasters {
		if !r.IsContext {
			out[id] = r
		}
	}
	return out
}

// ContextRasters returns the context rasters.
func (p *Project) ContextRasters() map[int64]*Raster {
	out := make(map[int64]*Raster)
	for id, r := range p.Rasters {
		if r.IsContext {
			out[id] = r
		}
	}
	return out
}
