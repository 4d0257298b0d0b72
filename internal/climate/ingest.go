package climate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riverscapes/qris/internal/common"
	"github.com/riverscapes/qris/internal/store"
	"github.com/riverscapes/qris/internal/task"
	"github.com/riverscapes/qris/pkg/types"
)

// IngestTask downloads one or more variables for every feature of a
// sample frame and files the results as time series, one series per
// value column of the response. Each feature commits as its own
// transaction, so a cancelled or failed run keeps every fully-downloaded
// feature.
type IngestTask struct {
	Client  *Client
	Store   *store.Store
	FrameID int64

	// Name labels every series created by this run.
	Name        string
	Dataset     string
	Variables   []string
	StartDate   string
	EndDate     string
	AreaReducer string

	// Descriptions optionally maps variable names to display
	// descriptions, carried into series metadata.
	Descriptions map[string]string

	// seriesIDs dedupes the header rows within one run, keyed
	// "<dataset> <variable>". Successive runs create fresh series.
	seriesIDs map[string]int64
}

// Description implements task.Task.
func (t *IngestTask) Description() string {
	return fmt.Sprintf("Download %s %s for sample frame %d",
		t.Dataset, strings.Join(t.Variables, ","), t.FrameID)
}

// Run implements task.Task.
func (t *IngestTask) Run(ctx context.Context, progress *task.Progress) error {
	log := common.Logger()
	t.seriesIDs = make(map[string]int64)

	features, err := t.Store.SampleFrameFeatures(ctx, t.FrameID)
	if err != nil {
		return err
	}
	if len(features) == 0 {
		return fmt.Errorf("sample frame %d has no features with geometry", t.FrameID)
	}

	progress.Set(0, "starting download")
	for done, feature := range features {
		if err := ctx.Err(); err != nil {
			return err
		}

		observations, err := t.Client.Timeseries(ctx, TimeseriesRequest{
			Dataset:     t.Dataset,
			Variables:   t.Variables,
			StartDate:   t.StartDate,
			EndDate:     t.EndDate,
			AreaReducer: t.AreaReducer,
			Geometry:    feature.Geometry,
		})
		if err != nil {
			return fmt.Errorf("feature %d: %w", feature.FID, err)
		}
		if len(observations) == 0 {
			log.Warn("climate: no data for feature", "fid", feature.FID,
				"dataset", t.Dataset, "variables", t.Variables)
			progress.Set(100*(done+1)/len(features), progressLabel(feature, len(features), done+1))
			continue
		}

		if err := t.fileObservations(ctx, feature, observations); err != nil {
			return fmt.Errorf("feature %d: %w", feature.FID, err)
		}
		progress.Set(100*(done+1)/len(features), progressLabel(feature, len(features), done+1))
	}

	progress.Set(100, "download complete")
	return nil
}

func progressLabel(feature *types.SampleFrameFeature, total, done int) string {
	label := feature.DisplayLabel
	if label == "" {
		label = fmt.Sprintf("feature %d", feature.FID)
	}
	return fmt.Sprintf("%s (%d of %d)", label, done, total)
}

// fileObservations writes one feature's download as a single transaction:
// a series header per variable on first sight, then every point. The
// write runs detached from cancellation, so a cancel that lands after the
// response arrives still commits the feature before the run exits.
func (t *IngestTask) fileObservations(ctx context.Context, feature *types.SampleFrameFeature, observations []Observation) error {
	byVariable := make(map[string][]Observation)
	for _, obs := range observations {
		byVariable[obs.Variable] = append(byVariable[obs.Variable], obs)
	}
	variables := make([]string, 0, len(byVariable))
	for variable := range byVariable {
		variables = append(variables, variable)
	}
	sort.Strings(variables)

	writeCtx := context.WithoutCancel(ctx)
	return t.Store.WithTx(writeCtx, func(tx *sqlx.Tx) error {
		for _, variable := range variables {
			group := byVariable[variable]
			seriesID, err := t.ensureSeries(writeCtx, tx, variable, group[0].Units)
			if err != nil {
				return err
			}
			points := make([]types.TimeSeriesPoint, len(group))
			for i, obs := range group {
				points[i] = types.TimeSeriesPoint{
					SampleFrameFeatureID: feature.FID,
					TimeSeriesID:         seriesID,
					TimeValue:            obs.Date,
					Value:                obs.Value,
				}
			}
			if err := store.InsertTimeSeriesPointsTx(writeCtx, tx, points); err != nil {
				return err
			}
		}
		return nil
	})
}

// ensureSeries inserts a variable's series header once per run and reuses
// its id for every subsequent feature.
func (t *IngestTask) ensureSeries(ctx context.Context, tx *sqlx.Tx, variable, units string) (int64, error) {
	key := t.Dataset + " " + variable
	if id, ok := t.seriesIDs[key]; ok {
		return id, nil
	}

	name := t.Name
	if name == "" {
		name = key
	}
	series := &types.TimeSeries{
		Name:   name,
		Source: SourceName,
		URL:    SourceURL,
		Metadata: map[string]string{
			types.SeriesMetaDataset:     t.Dataset,
			types.SeriesMetaVariable:    variable,
			types.SeriesMetaStartDate:   t.StartDate,
			types.SeriesMetaEndDate:     t.EndDate,
			types.SeriesMetaAreaReducer: t.AreaReducer,
		},
	}
	if units != "" {
		series.Metadata[types.SeriesMetaUnits] = units
	}
	if description := t.Descriptions[variable]; description != "" {
		series.Metadata[types.SeriesMetaDescription] = description
	}
	if err := store.InsertTimeSeriesTx(ctx, tx, series); err != nil {
		return 0, err
	}
	t.seriesIDs[key] = series.ID
	common.Logger().Info("climate: created time series",
		"series", series.Name, "variable", variable, "id", series.ID)
	return series.ID, nil
}
