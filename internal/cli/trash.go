package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/existflow/taskr/internal/retention"
	"github.com/spf13/cobra"
)

var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "Inspect and restore deleted done tasks",
	RunE:  runTrashList,
}

var trashLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List trashed tasks, most recent first",
	RunE:    runTrashList,
}

var trashRestoreCmd = &cobra.Command{
	Use:   "restore [index]",
	Short: "Restore a trashed task to the done list",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrashRestore,
}

var trashClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Permanently empty every trash (tasks, projects, todos)",
	RunE:  runTrashClear,
}

var trashForce bool

func init() {
	trashClearCmd.Flags().BoolVarP(&trashForce, "force", "f", false, "Do not ask for confirmation")

	trashCmd.AddCommand(trashLsCmd)
	trashCmd.AddCommand(trashRestoreCmd)
	trashCmd.AddCommand(trashClearCmd)
}

func runTrashList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	trash := a.Tasks.Trash()
	if len(trash) == 0 {
		fmt.Println("Trash is empty.")
		return nil
	}
	current := a.Now()
	fmt.Println()
	for i, e := range trash {
		left := e.DeletedAt.Add(retention.DoneTTL).Sub(current).Round(time.Second)
		fmt.Printf("  %2d  %-8s  %-30s  expires in %s\n", i, shortID(e.Task.ID), truncate(e.Task.Todo, 30), left)
	}
	fmt.Println()
	return nil
}

func runTrashRestore(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q", args[0])
	}
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	t, err := a.Tasks.RestoreFromTrash(cmd.Context(), index)
	if err != nil {
		return err
	}
	fmt.Printf("↺ Restored to done: %s\n", t.Todo)
	return nil
}

func runTrashClear(cmd *cobra.Command, args []string) error {
	if cfg.ConfirmDelete && !trashForce && !confirm("Permanently empty the trash?") {
		fmt.Println("Aborted.")
		return nil
	}
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.ClearTrash(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("🗑  Trash emptied")
	return nil
}
