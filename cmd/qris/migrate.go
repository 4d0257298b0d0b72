// Migrate command: bring a project store up to the current schema.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateList bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations to a project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := projectStore()
		if err != nil {
			return err
		}

		if migrateList {
			applied, err := s.AppliedMigrations(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range applied {
				fmt.Println(id)
			}
			return nil
		}

		messages, err := s.ApplyMigrations(cmd.Context())
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			fmt.Println("project is up to date")
			return nil
		}
		for _, msg := range messages {
			fmt.Println(msg)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateList, "list", false, "list applied migrations instead of applying")
}
