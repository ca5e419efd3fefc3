package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kwestin/listsync/internal/model"
	"github.com/kwestin/listsync/internal/state"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	GroupID: "data",
	Short:   "Manage tasks",
	Long: `Add, complete, reorder, and delete tasks.

Tasks live in exactly one list, may carry a category from that list, and
nest one level deep under a parent task. Deleting a parent deletes its
subtasks.`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add LIST TITLE",
	Short: "Add a task to a list",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		categoryArg, _ := cmd.Flags().GetString("category")
		parentArg, _ := cmd.Flags().GetString("parent")
		oneShot(func(st *state.Store) error {
			list, err := resolveList(st, args[0])
			if err != nil {
				return err
			}
			var categoryID *string
			if categoryArg != "" {
				category, err := resolveCategory(st, list.ID, categoryArg)
				if err != nil {
					return err
				}
				categoryID = model.StringPtr(category.ID)
			}
			var parentID *string
			if parentArg != "" {
				parent, err := resolveTask(st, parentArg)
				if err != nil {
					return err
				}
				parentID = model.StringPtr(parent.ID)
			}
			task, err := st.AddTask(list.ID, args[1], categoryID, parentID)
			if err != nil {
				return err
			}
			ok(fmt.Sprintf("Added %s to %s (%s)", task.Title, list.Name, shortID(task.ID)))
			return nil
		})
	},
}

var taskLsCmd = &cobra.Command{
	Use:   "ls [LIST]",
	Short: "Show tasks, for one list or all of them",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		readOnly(func(st *state.Store) {
			showCompleted := all || st.Preferences().ShowCompleted
			if len(args) == 1 {
				list, err := resolveList(st, args[0])
				if err != nil {
					fatal("%v", err)
				}
				printTasks(st, list, showCompleted)
				return
			}
			for _, list := range st.Lists() {
				printTasks(st, list, showCompleted)
			}
		})
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done TASK",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setCompleted(args[0], true)
	},
}

var taskUndoneCmd = &cobra.Command{
	Use:   "undone TASK",
	Short: "Mark a task not completed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setCompleted(args[0], false)
	},
}

func setCompleted(arg string, completed bool) {
	oneShot(func(st *state.Store) error {
		task, err := resolveTask(st, arg)
		if err != nil {
			return err
		}
		if err := st.SetTaskCompleted(task.ID, completed); err != nil {
			return err
		}
		if completed {
			ok(fmt.Sprintf("Done: %s", task.Title))
		} else {
			ok(fmt.Sprintf("Reopened: %s", task.Title))
		}
		return nil
	})
}

var taskRenameCmd = &cobra.Command{
	Use:   "rename TASK TITLE",
	Short: "Rename a task",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		oneShot(func(st *state.Store) error {
			task, err := resolveTask(st, args[0])
			if err != nil {
				return err
			}
			if err := st.RenameTask(task.ID, args[1]); err != nil {
				return err
			}
			ok(fmt.Sprintf("Renamed to %s", args[1]))
			return nil
		})
	},
}

var taskMoveCmd = &cobra.Command{
	Use:     "move TASK POSITION",
	Aliases: []string{"mv"},
	Short:   "Move a task within its list (0-based)",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		position, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("position must be a number, got %q", args[1])
		}
		oneShot(func(st *state.Store) error {
			task, err := resolveTask(st, args[0])
			if err != nil {
				return err
			}
			if err := st.MoveTask(task.ID, position); err != nil {
				return err
			}
			ok(fmt.Sprintf("Moved %s to position %d", task.Title, position))
			return nil
		})
	},
}

var taskCategoryCmd = &cobra.Command{
	Use:   "category TASK CATEGORY",
	Short: "Set a task's category, or 'none' to clear it",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		oneShot(func(st *state.Store) error {
			task, err := resolveTask(st, args[0])
			if err != nil {
				return err
			}
			var categoryID *string
			if !strings.EqualFold(args[1], "none") {
				category, err := resolveCategory(st, task.ListID, args[1])
				if err != nil {
					return err
				}
				categoryID = model.StringPtr(category.ID)
			}
			if err := st.SetTaskCategory(task.ID, categoryID); err != nil {
				return err
			}
			ok(fmt.Sprintf("Updated category for %s", task.Title))
			return nil
		})
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm TASK",
	Short: "Delete a task and its subtasks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		oneShot(func(st *state.Store) error {
			task, err := resolveTask(st, args[0])
			if err != nil {
				return err
			}
			if err := st.DeleteTask(task.ID); err != nil {
				return err
			}
			ok(fmt.Sprintf("Deleted %s", task.Title))
			return nil
		})
	},
}

func init() {
	taskAddCmd.Flags().String("category", "", "Category id or name within the list")
	taskAddCmd.Flags().String("parent", "", "Parent task id; makes this a subtask")
	taskLsCmd.Flags().Bool("all", false, "Include completed tasks")
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskLsCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskUndoneCmd)
	taskCmd.AddCommand(taskRenameCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskCategoryCmd)
	taskCmd.AddCommand(taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}
