// Init command: create a new project store.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	initName        string
	initDescription string
	initMetadata    []string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new project geopackage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if initName == "" {
			return errors.New("--name is required")
		}
		s, err := projectStore()
		if err != nil {
			return err
		}
		metadata, err := parseMetadata(initMetadata)
		if err != nil {
			return err
		}

		project, err := s.Initialize(cmd.Context(), initName, initDescription, metadata)
		if err != nil {
			return err
		}
		fmt.Printf("created project %q at %s\n", project.Name, s.Path())
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "project name")
	initCmd.Flags().StringVar(&initDescription, "description", "", "project description")
	initCmd.Flags().StringArrayVar(&initMetadata, "meta", nil, "project metadata as key=value (repeatable)")
}
