package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/existflow/taskr/internal/attachment"
	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Manage task attachments",
	Long: `Manage task attachments. Up to 5 files per task, 1MB each, of type
jpeg, png, svg or pdf. Attachments expire after 20 days.`,
}

var attachAddCmd = &cobra.Command{
	Use:   "add [task-id] [file...]",
	Short: "Attach files to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAttachAdd,
}

var attachRmCmd = &cobra.Command{
	Use:   "rm [task-id] [attachment-id]",
	Short: "Remove an attachment from a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runAttachRm,
}

var attachGetCmd = &cobra.Command{
	Use:   "get [attachment-id]",
	Short: "Save an attachment to disk",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttachGet,
}

var attachLsCmd = &cobra.Command{
	Use:     "ls [task-id]",
	Aliases: []string{"list"},
	Short:   "List a task's attachments",
	Args:    cobra.ExactArgs(1),
	RunE:    runAttachLs,
}

var attachOutput string

func init() {
	attachGetCmd.Flags().StringVarP(&attachOutput, "output", "o", "", "Output path (default: the attachment's name)")

	attachCmd.AddCommand(attachAddCmd)
	attachCmd.AddCommand(attachRmCmd)
	attachCmd.AddCommand(attachGetCmd)
	attachCmd.AddCommand(attachLsCmd)
}

func runAttachAdd(cmd *cobra.Command, args []string) error {
	files, err := readUploads(args[1:])
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	t, err := a.Tasks.Resolve(args[0])
	if err != nil {
		return err
	}
	updated, err := a.Tasks.AddAttachments(cmd.Context(), t.ID, files)
	if err != nil {
		return err
	}
	fmt.Printf("📎 %s now has %d attachment(s)\n", shortID(updated.ID), len(updated.Attachments))
	return nil
}

func runAttachRm(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	t, err := a.Tasks.Resolve(args[0])
	if err != nil {
		return err
	}
	attID := args[1]
	for _, m := range t.Attachments {
		if strings.HasPrefix(m.ID, attID) {
			attID = m.ID
			break
		}
	}
	if _, err := a.Tasks.RemoveAttachment(cmd.Context(), t.ID, attID); err != nil {
		return err
	}
	fmt.Println("✓ Attachment removed")
	return nil
}

func runAttachGet(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	id := args[0]
	for _, t := range a.Tasks.All() {
		for _, m := range t.Attachments {
			if strings.HasPrefix(m.ID, id) {
				id = m.ID
			}
		}
	}
	rec, err := a.Attachments().Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	if rec == nil {
		return attachment.ErrNotFound
	}

	out := attachOutput
	if out == "" {
		out = filepath.Base(rec.Name)
	}
	if err := os.WriteFile(out, rec.Blob, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Printf("✓ Saved %s (%d bytes)\n", out, len(rec.Blob))
	return nil
}

func runAttachLs(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	t, err := a.Tasks.Resolve(args[0])
	if err != nil {
		return err
	}
	if len(t.Attachments) == 0 {
		fmt.Println("No attachments.")
		return nil
	}
	for _, m := range t.Attachments {
		fmt.Printf("  %-8s  %-30s  %7d B  expires %s\n", shortID(m.ID), truncate(m.Name, 30), m.Size, m.ExpiresAt.Format("2006-01-02"))
	}
	return nil
}
