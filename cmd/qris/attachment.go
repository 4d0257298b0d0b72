// Attachment commands: register, list, rename, and delete project
// attachments.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	attachmentLabel       string
	attachmentDescription string
	attachmentMetadata    []string
)

var attachmentCmd = &cobra.Command{
	Use:   "attachment",
	Short: "Manage project attachments",
}

var attachmentAddFileCmd = &cobra.Command{
	Use:   "add-file <path>",
	Short: "Copy a file into the project and register it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if attachmentLabel == "" {
			return errors.New("--label is required")
		}
		s, err := projectStore()
		if err != nil {
			return err
		}
		metadata, err := parseAnyMetadata(attachmentMetadata)
		if err != nil {
			return err
		}
		a, err := s.CreateFileAttachment(cmd.Context(), attachmentLabel, args[0], attachmentDescription, metadata)
		if err != nil {
			return err
		}
		fmt.Printf("attachment %d: %s -> %s\n", a.ID, a.DisplayLabel, a.Path)
		return nil
	},
}

var attachmentAddLinkCmd = &cobra.Command{
	Use:   "add-link <url>",
	Short: "Register a web link attachment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if attachmentLabel == "" {
			return errors.New("--label is required")
		}
		s, err := projectStore()
		if err != nil {
			return err
		}
		metadata, err := parseAnyMetadata(attachmentMetadata)
		if err != nil {
			return err
		}
		a, err := s.CreateWebLinkAttachment(cmd.Context(), attachmentLabel, args[0], attachmentDescription, metadata)
		if err != nil {
			return err
		}
		fmt.Printf("attachment %d: %s -> %s\n", a.ID, a.DisplayLabel, a.Path)
		return nil
	},
}

var attachmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List project attachments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := projectStore()
		if err != nil {
			return err
		}
		attachments, err := s.ListAttachments(cmd.Context())
		if err != nil {
			return err
		}
		for _, a := range attachments {
			fmt.Printf("%d\t%s\t%s\t%s\n", a.ID, a.AttachmentType, a.DisplayLabel, a.Path)
		}
		return nil
	},
}

var attachmentRenameCmd = &cobra.Command{
	Use:   "rename <id>",
	Short: "Rename an attachment, moving its file to match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if attachmentLabel == "" {
			return errors.New("--label is required")
		}
		s, err := projectStore()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := s.UpdateAttachment(cmd.Context(), id, attachmentLabel, attachmentDescription)
		if err != nil {
			return err
		}
		fmt.Printf("attachment %d: %s -> %s\n", a.ID, a.DisplayLabel, a.Path)
		return nil
	},
}

var attachmentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an attachment and its file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := projectStore()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return s.DeleteAttachment(cmd.Context(), id)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{attachmentAddFileCmd, attachmentAddLinkCmd, attachmentRenameCmd} {
		cmd.Flags().StringVar(&attachmentLabel, "label", "", "display label")
		cmd.Flags().StringVar(&attachmentDescription, "description", "", "description")
	}
	attachmentAddFileCmd.Flags().StringArrayVar(&attachmentMetadata, "meta", nil, "metadata as key=value (repeatable)")
	attachmentAddLinkCmd.Flags().StringArrayVar(&attachmentMetadata, "meta", nil, "metadata as key=value (repeatable)")

	attachmentCmd.AddCommand(attachmentAddFileCmd)
	attachmentCmd.AddCommand(attachmentAddLinkCmd)
	attachmentCmd.AddCommand(attachmentListCmd)
	attachmentCmd.AddCommand(attachmentRenameCmd)
	attachmentCmd.AddCommand(attachmentDeleteCmd)
}
