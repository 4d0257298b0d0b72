// Climate commands: inspect Climate Engine datasets and download zonal
// time series into a project.
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/riverscapes/qris/internal/climate"
	"github.com/riverscapes/qris/internal/task"
)

var (
	climateBaseURL string
	climateDataset string

	downloadFrameID   int64
	downloadName      string
	downloadVariables []string
	downloadStartDate string
	downloadEndDate   string
	downloadReducer   string
)

var climateCmd = &cobra.Command{
	Use:   "climate",
	Short: "Download Climate Engine time series",
}

var climateVariablesCmd = &cobra.Command{
	Use:   "variables",
	Short: "List the variables a dataset offers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if climateDataset == "" {
			return errors.New("--dataset is required")
		}
		client, err := climateClient()
		if err != nil {
			return err
		}

		min, max, err := client.DatasetDates(cmd.Context(), climateDataset)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s to %s\n", climateDataset, min, max)

		variables, err := client.DatasetVariables(cmd.Context(), climateDataset)
		if err != nil {
			return err
		}
		for _, v := range variables {
			fmt.Printf("  %s (%s)\t%s\n", v.Name, v.Units, v.Description)
		}
		return nil
	},
}

var climateDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download variables for every feature of a sample frame",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case climateDataset == "":
			return errors.New("--dataset is required")
		case len(downloadVariables) == 0:
			return errors.New("--variable is required")
		case downloadName == "":
			return errors.New("--name is required")
		case downloadFrameID == 0:
			return errors.New("--frame is required")
		}
		s, err := projectStore()
		if err != nil {
			return err
		}
		client, err := climateClient()
		if err != nil {
			return err
		}

		ingest := &climate.IngestTask{
			Client:       client,
			Store:        s,
			FrameID:      downloadFrameID,
			Name:         downloadName,
			Dataset:      climateDataset,
			Variables:    downloadVariables,
			StartDate:    downloadStartDate,
			EndDate:      downloadEndDate,
			AreaReducer:  downloadReducer,
			Descriptions: variableDescriptions(cmd, client),
		}
		return runTask(cmd, ingest)
	},
}

// variableDescriptions looks up display descriptions for the dataset's
// variables. Best effort: on failure the download proceeds without them.
func variableDescriptions(cmd *cobra.Command, client *climate.Client) map[string]string {
	variables, err := client.DatasetVariables(cmd.Context(), climateDataset)
	if err != nil {
		return nil
	}
	out := make(map[string]string, len(variables))
	for _, v := range variables {
		out[v.Name] = v.Description
	}
	return out
}

// climateClient builds an authorized client from the settings store.
func climateClient() (*climate.Client, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	apiKey, err := climate.APIKey(settings)
	if err != nil {
		return nil, err
	}
	return climate.NewClient(climateBaseURL, apiKey), nil
}

// runTask executes a background task on the runner, echoing progress
// lines until it finishes.
func runTask(cmd *cobra.Command, t task.Task) error {
	runner := task.NewRunner(t)
	if err := runner.Start(cmd.Context()); err != nil {
		return err
	}

	done := make(chan struct{})
	runner.OnFinished(func(bool, error) { close(done) })

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	lastPercent := -1
	for {
		select {
		case <-done:
			return runner.Err()
		case <-ticker.C:
			percent, message := runner.Progress()
			if percent != lastPercent {
				fmt.Printf("%3d%% %s\n", percent, message)
				lastPercent = percent
			}
		}
	}
}

func init() {
	climateCmd.PersistentFlags().StringVar(&climateBaseURL, "base-url", "", "Climate Engine API endpoint (default: production)")
	climateCmd.PersistentFlags().StringVar(&climateDataset, "dataset", "", "Climate Engine dataset")

	climateDownloadCmd.Flags().Int64Var(&downloadFrameID, "frame", 0, "sample frame id")
	climateDownloadCmd.Flags().StringVar(&downloadName, "name", "", "display name for the downloaded series")
	climateDownloadCmd.Flags().StringSliceVar(&downloadVariables, "variable", nil, "dataset variable (repeatable)")
	climateDownloadCmd.Flags().StringVar(&downloadStartDate, "start", "", "start date (YYYY-MM-DD)")
	climateDownloadCmd.Flags().StringVar(&downloadEndDate, "end", "", "end date (YYYY-MM-DD)")
	climateDownloadCmd.Flags().StringVar(&downloadReducer, "reducer", "mean", "area reducer")

	climateCmd.AddCommand(climateVariablesCmd)
	climateCmd.AddCommand(climateDownloadCmd)
}
