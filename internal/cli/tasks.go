package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/existflow/taskr/internal/app"
	"github.com/existflow/taskr/internal/calendar"
	"github.com/existflow/taskr/internal/task"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [todo]",
	Short: "Add a new task",
	Long: `Add a new active task.

Examples:
  taskr add "Send invoice" -P "Client A" -d 2025-01-31
  taskr add "Dentist" -t private -d tomorrow -T 09:30
  taskr add "Review contract" -a contract.pdf -a diagram.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addProject string
	addType    string
	addDue     string
	addTime    string
	addNote    string
	addFiles   []string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List active tasks, or done tasks with --done.

The project context and type filters saved by 'taskr context' and the TUI
apply unless overridden by flags.

Examples:
  taskr list
  taskr list --sort project
  taskr list --done`,
	RunE: runList,
}

var (
	listDone    bool
	listSort    string
	listProject string
	listWork    bool
	listPrivate bool
)

var doneCmd = &cobra.Command{
	Use:   "done [task-id...]",
	Short: "Mark tasks as done (or active again with --undo)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDone,
}

var doneUndo bool

var editCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Edit a task's fields",
	Long: `Edit a task. Only the flags given are changed.

Examples:
  taskr edit 3f2a --todo "Send final invoice"
  taskr edit 3f2a --due "" --time ""`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editProject string
	editTodo    string
	editType    string
	editDue     string
	editTime    string
	editNote    string
)

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule [task-id] [days]",
	Short: "Move a task's due date by a number of days",
	Long: `Move a task's due date by days (negative moves it earlier). Tasks
without a due date are scheduled relative to today.`,
	Args: cobra.ExactArgs(2),
	RunE: runReschedule,
}

var dupCmd = &cobra.Command{
	Use:   "dup [task-id]",
	Short: "Duplicate a task, attachments included",
	Args:  cobra.ExactArgs(1),
	RunE:  runDup,
}

var deleteCmd = &cobra.Command{
	Use:     "delete [task-id...]",
	Aliases: []string{"rm"},
	Short:   "Move done tasks to the trash",
	Long: `Move done tasks to the trash, where they can be restored for five
minutes. Their attachments are deleted immediately.`,
	RunE: runDelete,
}

var deleteAllDone bool

func init() {
	addCmd.Flags().StringVarP(&addProject, "project", "P", "", "Project name")
	addCmd.Flags().StringVarP(&addType, "type", "t", "", "Task type (work, private)")
	addCmd.Flags().StringVarP(&addDue, "due", "d", "", "Due date (YYYY-MM-DD, today, tomorrow)")
	addCmd.Flags().StringVarP(&addTime, "time", "T", "", "Due time (HH:MM)")
	addCmd.Flags().StringVarP(&addNote, "note", "n", "", "Note")
	addCmd.Flags().StringArrayVarP(&addFiles, "attach", "a", nil, "Attach a file (repeatable)")

	listCmd.Flags().BoolVar(&listDone, "done", false, "List done tasks")
	listCmd.Flags().StringVarP(&listSort, "sort", "s", "", "Order: due, project, created (done list: completed, project)")
	listCmd.Flags().StringVarP(&listProject, "project", "P", "", "Only tasks of this project")
	listCmd.Flags().BoolVar(&listWork, "work", false, "Only work tasks")
	listCmd.Flags().BoolVar(&listPrivate, "private", false, "Only private tasks")

	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Mark the tasks active again")

	editCmd.Flags().StringVarP(&editProject, "project", "P", "", "Project name")
	editCmd.Flags().StringVar(&editTodo, "todo", "", "Todo text")
	editCmd.Flags().StringVarP(&editType, "type", "t", "", "Task type (work, private)")
	editCmd.Flags().StringVarP(&editDue, "due", "d", "", "Due date (YYYY-MM-DD, empty to clear)")
	editCmd.Flags().StringVarP(&editTime, "time", "T", "", "Due time (HH:MM, empty to clear)")
	editCmd.Flags().StringVarP(&editNote, "note", "n", "", "Note")

	deleteCmd.Flags().BoolVar(&deleteAllDone, "all-done", false, "Delete every done task")
}

func runAdd(cmd *cobra.Command, args []string) error {
	typ, err := parseType(addType)
	if err != nil {
		return err
	}
	due, err := parseDue(addDue)
	if err != nil {
		return err
	}
	tm, err := parseTime(addTime)
	if err != nil {
		return err
	}
	files, err := readUploads(addFiles)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	if !cmd.Flags().Changed("type") {
		typ = a.View().NewType
	}
	project := addProject
	if !cmd.Flags().Changed("project") {
		project = a.View().ProjectFilter
	}

	t, err := a.CreateTask(cmd.Context(), task.Input{
		Type:    typ,
		Project: project,
		Todo:    strings.Join(args, " "),
		Note:    addNote,
		DueDate: due,
		DueTime: tm,
	}, files)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Added %s [%s] %s  %s\n", shortID(t.ID), t.Type.Badge(), t.Todo, calendar.FormatDate(t.DueDate, t.DueTime))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	view := a.View()
	q := view.ActiveQuery()
	if listDone {
		q = view.DoneQuery()
	}
	if listSort != "" {
		q.Sort = task.ParseSortKey(listSort, q.Sort)
	}
	if cmd.Flags().Changed("project") {
		q.Project = listProject
	}
	if listWork || listPrivate {
		q.Types = task.TypeFilter{Work: listWork, Private: listPrivate}
	}

	tasks := task.NewSorter().Apply(a.Tasks.All(), q)
	title := "Active"
	if listDone {
		title = "Done"
	}
	if q.Project != "" && !listDone {
		title += " · " + q.Project
	}

	width := termWidth()
	fmt.Printf("\n%s (%d)\n", title, len(tasks))
	fmt.Println(strings.Repeat("─", min(width, 80)))
	if len(tasks) == 0 {
		fmt.Println("  No tasks. Add one with: taskr add \"Your task\"")
	}
	for _, t := range tasks {
		printTask(t, width)
	}
	fmt.Println()
	return nil
}

func runDone(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	for _, ref := range args {
		t, err := a.Tasks.Resolve(ref)
		if err != nil {
			return fmt.Errorf("%s: %w", ref, err)
		}
		if doneUndo {
			t, err = a.Tasks.Restore(cmd.Context(), t.ID)
		} else {
			t, err = a.Tasks.Complete(cmd.Context(), t.ID)
		}
		if err != nil {
			return err
		}
		if doneUndo {
			fmt.Printf("↺ Reopened: %s\n", t.Todo)
		} else {
			fmt.Printf("✓ Done: %s\n", t.Todo)
		}
	}
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	t, err := a.Tasks.Resolve(args[0])
	if err != nil {
		return err
	}
	in := task.InputFrom(t)
	flags := cmd.Flags()
	if flags.Changed("project") {
		in.Project = editProject
	}
	if flags.Changed("todo") {
		in.Todo = editTodo
	}
	if flags.Changed("note") {
		in.Note = editNote
	}
	if flags.Changed("type") {
		if in.Type, err = parseType(editType); err != nil {
			return err
		}
	}
	if flags.Changed("due") {
		if in.DueDate, err = parseDue(editDue); err != nil {
			return err
		}
	}
	if flags.Changed("time") {
		if in.DueTime, err = parseTime(editTime); err != nil {
			return err
		}
	}

	updated, err := a.Tasks.Edit(cmd.Context(), t.ID, in, t.AttachmentIDs(), nil)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Updated %s: %s  %s\n", shortID(updated.ID), updated.Todo, calendar.FormatDate(updated.DueDate, updated.DueTime))
	return nil
}

func runReschedule(cmd *cobra.Command, args []string) error {
	days, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid day count %q", args[1])
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
	updated, ok, err := a.Tasks.Reschedule(cmd.Context(), t.ID, days)
	if err != nil {
		return err
	}
	if !ok {
		return task.ErrNotFound
	}
	risk := calendar.RiskLabel(updated.DueDate, a.Now())
	fmt.Printf("📅 %s → %s (%s)\n", updated.Todo, calendar.FormatDate(updated.DueDate, updated.DueTime), risk.Text)
	return nil
}

func runDup(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	t, err := a.Tasks.Resolve(args[0])
	if err != nil {
		return err
	}
	cp, res, err := a.Tasks.Duplicate(cmd.Context(), t.ID)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Duplicated as %s: %s\n", shortID(cp.ID), cp.Todo)
	if res.Produced < res.Attempted {
		fmt.Printf("  %d of %d attachments were no longer available\n", res.Attempted-res.Produced, res.Attempted)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !deleteAllDone {
		return fmt.Errorf("give task ids or --all-done")
	}
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	ids, err := deleteTargets(a, args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("Nothing to delete.")
		return nil
	}
	if err := a.Tasks.Delete(cmd.Context(), ids...); err != nil {
		return err
	}
	fmt.Printf("🗑  Moved %d task(s) to the trash (restorable for 5 minutes)\n", len(ids))
	return nil
}

func deleteTargets(a *app.App, refs []string) ([]string, error) {
	if deleteAllDone {
		var ids []string
		for _, t := range a.Tasks.All() {
			if t.Done {
				ids = append(ids, t.ID)
			}
		}
		return ids, nil
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		t, err := a.Tasks.Resolve(ref)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref, err)
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}
