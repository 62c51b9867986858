package cli

import (
	"fmt"
	"strconv"

	"github.com/existflow/taskr/internal/history"
	"github.com/existflow/taskr/internal/model"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage remembered project and todo names",
	Long: `Manage the remembered project and todo names offered when adding
tasks. Removed names stay in a trash for five minutes.

Examples:
  taskr history project ls
  taskr history todo rm 0 2
  taskr history project restore 0`,
}

func init() {
	historyCmd.AddCommand(newHistoryKindCmd(model.HistoryProject, "Project names"))
	historyCmd.AddCommand(newHistoryKindCmd(model.HistoryTodo, "Todo names"))
}

func newHistoryKindCmd(kind model.HistoryKind, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: short,
		RunE:  historyRun(kind, runHistoryList),
	}

	var removeAll bool
	rm := &cobra.Command{
		Use:   "rm [index...]",
		Short: "Move names to the trash",
		RunE: historyRun(kind, func(cmd *cobra.Command, repo *history.Repository, args []string) error {
			var n int
			var err error
			if removeAll {
				n, err = repo.DeleteAll(cmd.Context())
			} else {
				indices, perr := parseIndices(args)
				if perr != nil {
					return perr
				}
				n, err = repo.Delete(cmd.Context(), indices...)
			}
			if err != nil {
				return err
			}
			fmt.Printf("🗑  Moved %d name(s) to the trash\n", n)
			return nil
		}),
	}
	rm.Flags().BoolVar(&removeAll, "all", false, "Remove every name")

	cmd.AddCommand(
		&cobra.Command{
			Use:     "ls",
			Aliases: []string{"list"},
			Short:   "List names, most recent first",
			RunE:    historyRun(kind, runHistoryList),
		},
		&cobra.Command{
			Use:   "edit [index] [value]",
			Short: "Rename an entry",
			Args:  cobra.ExactArgs(2),
			RunE: historyRun(kind, func(cmd *cobra.Command, repo *history.Repository, args []string) error {
				index, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid index %q", args[0])
				}
				if err := repo.Edit(cmd.Context(), index, args[1]); err != nil {
					return err
				}
				fmt.Printf("✓ Renamed to %s\n", args[1])
				return nil
			}),
		},
		rm,
		&cobra.Command{
			Use:   "restore [trash-index]",
			Short: "Bring a name back from the trash",
			Args:  cobra.ExactArgs(1),
			RunE: historyRun(kind, func(cmd *cobra.Command, repo *history.Repository, args []string) error {
				index, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid index %q", args[0])
				}
				value, err := repo.Restore(cmd.Context(), index)
				if err != nil {
					return err
				}
				fmt.Printf("↺ Restored %s\n", value)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "trash",
			Short: "List trashed names",
			RunE: historyRun(kind, func(cmd *cobra.Command, repo *history.Repository, args []string) error {
				trash := repo.Trash()
				if len(trash) == 0 {
					fmt.Println("Trash is empty.")
					return nil
				}
				for i, e := range trash {
					fmt.Printf("  %2d  %s  (deleted %s)\n", i, e.Value, e.DeletedAt.Format("15:04:05"))
				}
				return nil
			}),
		},
	)
	return cmd
}

type historyAction func(cmd *cobra.Command, repo *history.Repository, args []string) error

// historyRun opens the app and hands the action the repository of kind
func historyRun(kind model.HistoryKind, action historyAction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(a)
		return action(cmd, a.History(kind), args)
	}
}

func runHistoryList(cmd *cobra.Command, repo *history.Repository, args []string) error {
	values := repo.Values()
	if len(values) == 0 {
		fmt.Println("No names recorded yet.")
		return nil
	}
	for i, v := range values {
		fmt.Printf("  %2d  %s\n", i, v)
	}
	return nil
}

func parseIndices(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("give at least one index or --all")
	}
	out := make([]int, 0, len(args))
	for _, s := range args {
		i, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", s)
		}
		out = append(out, i)
	}
	return out, nil
}
