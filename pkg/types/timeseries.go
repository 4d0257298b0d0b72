package types

// Time series metadata keys written by the climate ingestion task.
const (
	SeriesMetaUnits       = "units"
	SeriesMetaStartDate   = "start_date"
	SeriesMetaEndDate     = "end_date"
	SeriesMetaDataset     = "dataset"
	SeriesMetaVariable    = "variable"
	SeriesMetaAreaReducer = "area_reducer"
	SeriesMetaDescription = "description"
)

// TimeSeries is one downloaded climate variable. Identity is id-based:
// re-running a download creates a new series row and higher layers dedupe
// by listing.
type TimeSeries struct {
	ID       int64
	Name     string
	Source   string
	URL      string
	Metadata map[string]string
}

// Dataset returns the climate dataset the series was reduced from.
func (ts *TimeSeries) Dataset() string { return ts.Metadata[SeriesMetaDataset] }

// Variable returns the climate variable the series carries.
func (ts *TimeSeries) Variable() string { return ts.Metadata[SeriesMetaVariable] }

// TimeSeriesPoint is one sampled value of a series for one sample frame
// feature. (SampleFrameFeatureID, TimeSeriesID, TimeValue) is unique.
type TimeSeriesPoint struct {
	SampleFrameFeatureID int64
	TimeSeriesID         int64
	TimeValue            string
	Value                float64
}
