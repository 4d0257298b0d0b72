package types

// Metric is a measurable quantity computed per sample frame feature.
type Metric struct {
	ID          int64
	Name        string
	MachineName string
	Description string
	DefaultUnit string
}

// Analysis aggregates metric values over one sample frame.
type Analysis struct {
	ID            int64
	Name          string
	Description   string
	SampleFrameID int64
	// Metrics keys on metric id; order of enumeration must be sorted by
	// key when building deterministic SQL.
	Metrics map[int64]*AnalysisMetric
}

// AnalysisMetric is the selection of one metric within an analysis.
type AnalysisMetric struct {
	MetricID int64
	LevelID  int64
	Metric   *Metric
}
