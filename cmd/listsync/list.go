package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kwestin/listsync/internal/state"
)

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "data",
	Short:   "Manage task lists",
	Long: `Create, rename, reorder, and delete task lists.

Lists are referenced by id, unique id prefix, or name. Deleting a list
also deletes its categories and tasks, here and on every synced device.`,
}

var listAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a new list",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showOnOpen, _ := cmd.Flags().GetBool("open")
		oneShot(func(st *state.Store) error {
			list, err := st.AddList(args[0])
			if err != nil {
				return err
			}
			if showOnOpen {
				if err := st.SetListShowOnOpen(list.ID, true); err != nil {
					return err
				}
			}
			ok(fmt.Sprintf("Created list %s (%s)", list.Name, shortID(list.ID)))
			return nil
		})
	},
}

var listLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Show all lists",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		readOnly(func(st *state.Store) {
			printLists(st)
		})
	},
}

var listRenameCmd = &cobra.Command{
	Use:   "rename LIST NAME",
	Short: "Rename a list",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		oneShot(func(st *state.Store) error {
			list, err := resolveList(st, args[0])
			if err != nil {
				return err
			}
			if err := st.RenameList(list.ID, args[1]); err != nil {
				return err
			}
			ok(fmt.Sprintf("Renamed %s to %s", list.Name, args[1]))
			return nil
		})
	},
}

var listMoveCmd = &cobra.Command{
	Use:     "move LIST POSITION",
	Aliases: []string{"mv"},
	Short:   "Move a list to a new position (0-based)",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		position, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("position must be a number, got %q", args[1])
		}
		oneShot(func(st *state.Store) error {
			list, err := resolveList(st, args[0])
			if err != nil {
				return err
			}
			if err := st.MoveList(list.ID, position); err != nil {
				return err
			}
			ok(fmt.Sprintf("Moved %s to position %d", list.Name, position))
			return nil
		})
	},
}

var listOpenCmd = &cobra.Command{
	Use:   "open LIST on|off",
	Short: "Toggle whether the list opens at startup",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		show, err := parseOnOff(args[1])
		if err != nil {
			fatal("%v", err)
		}
		oneShot(func(st *state.Store) error {
			list, err := resolveList(st, args[0])
			if err != nil {
				return err
			}
			if err := st.SetListShowOnOpen(list.ID, show); err != nil {
				return err
			}
			ok(fmt.Sprintf("Show %s on open: %s", list.Name, args[1]))
			return nil
		})
	},
}

var listRmCmd = &cobra.Command{
	Use:   "rm LIST",
	Short: "Delete a list and everything in it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		oneShot(func(st *state.Store) error {
			list, err := resolveList(st, args[0])
			if err != nil {
				return err
			}
			if err := st.DeleteList(list.ID); err != nil {
				return err
			}
			ok(fmt.Sprintf("Deleted list %s", list.Name))
			return nil
		})
	},
}

func init() {
	listAddCmd.Flags().Bool("open", false, "Show this list when the app opens")
	listCmd.AddCommand(listAddCmd)
	listCmd.AddCommand(listLsCmd)
	listCmd.AddCommand(listRenameCmd)
	listCmd.AddCommand(listMoveCmd)
	listCmd.AddCommand(listOpenCmd)
	listCmd.AddCommand(listRmCmd)
	rootCmd.AddCommand(listCmd)
}
