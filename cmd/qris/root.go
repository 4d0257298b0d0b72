// Root command for the qris CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/riverscapes/qris/pkg/qris"
)

// Global flag values.
var (
	flagProject   string
	flagConfigDir string
)

var rootCmd = &cobra.Command{
	Use:     "qris",
	Short:   "QRiS manages riverscape assessment projects",
	Version: qris.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "path to the project .gpkg file")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: user config dir)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(attachmentCmd)
	rootCmd.AddCommand(climateCmd)
	rootCmd.AddCommand(exportCmd)
}
