// Export command: write a project to a riverscapes exchange tree.
package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/riverscapes/qris/internal/export"
	"github.com/riverscapes/qris/pkg/qris"
)

var exportOutputDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a project with its manifest and derived views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportOutputDir == "" {
			return errors.New("--out is required")
		}
		s, err := projectStore()
		if err != nil {
			return err
		}
		if err := s.Validate(cmd.Context()); err != nil {
			return err
		}

		exporter := &export.Exporter{
			Store:     s,
			OutputDir: exportOutputDir,
			Version:   qris.Version,
		}
		return runTask(cmd, exporter)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutputDir, "out", "", "output directory")
}
