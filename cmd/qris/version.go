// Version command for the qris CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riverscapes/qris/pkg/qris"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the qris version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("qris", qris.Version)
	},
}
