// Open command: run a project store through the full load pipeline and
// print its contents summary.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riverscapes/qris/internal/store"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Validate, migrate, and load a project, then summarize it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := projectStore()
		if err != nil {
			return err
		}
		load := &store.LoadTask{Store: s}
		if err := runTask(cmd, load); err != nil {
			return err
		}
		project := load.Project

		fmt.Printf("%s (%s)\n", project.Name, s.Path())
		if project.Description != "" {
			fmt.Println(project.Description)
		}
		fmt.Printf("  sample frames:  %d (AOIs: %d, valley bottoms: %d)\n",
			len(project.SampleFrames), len(project.AOIs()), len(project.ValleyBottoms()))
		fmt.Printf("  events:         %d\n", len(project.Events))
		fmt.Printf("  rasters:        %d\n", len(project.Rasters))
		fmt.Printf("  analyses:       %d\n", len(project.Analyses))
		fmt.Printf("  profiles:       %d\n", len(project.Profiles))
		fmt.Printf("  cross sections: %d\n", len(project.CrossSections))
		fmt.Printf("  pour points:    %d\n", len(project.PourPoints))
		fmt.Printf("  time series:    %d\n", len(project.TimeSeries))
		fmt.Printf("  attachments:    %d\n", len(project.Attachments))
		return nil
	},
}
