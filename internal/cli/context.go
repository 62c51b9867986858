package cli

import (
	"fmt"

	"github.com/existflow/taskr/internal/app"
	"github.com/existflow/taskr/internal/task"
	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage the project context",
	Long: `Set or view the current project context.

When a context is set, 'taskr list' shows only active tasks of that
project and new tasks are added to it by default.

Examples:
  taskr context              # Show current context
  taskr context ls           # List projects of active tasks
  taskr context set "Client A"
  taskr context clear`,
	RunE: runContextShow,
}

var contextLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List projects of active tasks",
	RunE:    runContextList,
}

var contextSetCmd = &cobra.Command{
	Use:   "set [project]",
	Short: "Set the current project context",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextSet,
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the current context",
	RunE:  runContextClear,
}

func init() {
	contextCmd.AddCommand(contextLsCmd)
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextClearCmd)
}

func runContextShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	project := a.View().ProjectFilter
	if project == "" {
		fmt.Println("📥 No context: all projects")
		return nil
	}
	fmt.Printf("📁 Current context: %s (%d active)\n", project, len(a.ActiveTasks()))
	return nil
}

func runContextList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	current := a.View().ProjectFilter
	projects := task.Projects(a.Tasks.All())
	task.NewSorter().SortNames(projects)

	fmt.Println()
	for _, p := range projects {
		marker := "  "
		if p == current {
			marker = "❯ "
		}
		fmt.Printf("%s%s\n", marker, p)
	}
	fmt.Println()
	fmt.Println("Use 'taskr context set <project>' to switch context")
	return nil
}

func runContextSet(cmd *cobra.Command, args []string) error {
	return setContext(cmd, args[0])
}

func runContextClear(cmd *cobra.Command, args []string) error {
	return setContext(cmd, "")
}

func setContext(cmd *cobra.Command, project string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	if _, err := a.UpdateView(cmd.Context(), func(v *app.ViewState) { v.ProjectFilter = project }); err != nil {
		return fmt.Errorf("failed to set context: %w", err)
	}
	if project == "" {
		fmt.Println("📥 Context cleared")
	} else {
		fmt.Printf("📁 Switched to: %s\n", project)
	}
	return nil
}
