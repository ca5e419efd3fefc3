package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kwestin/listsync/internal/model"
	"github.com/kwestin/listsync/internal/state"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"cat"},
	GroupID: "data",
	Short:   "Manage categories within a list",
	Long: `Categories group tasks inside a single list. Removing a category
keeps its tasks and simply clears their label.`,
}

var categoryAddCmd = &cobra.Command{
	Use:   "add LIST NAME",
	Short: "Add a category to a list",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		color, _ := cmd.Flags().GetString("color")
		oneShot(func(st *state.Store) error {
			list, err := resolveList(st, args[0])
			if err != nil {
				return err
			}
			category, err := st.AddCategory(list.ID, args[1])
			if err != nil {
				return err
			}
			if color != "" {
				if err := st.SetCategoryColor(category.ID, model.StringPtr(color)); err != nil {
					return err
				}
			}
			ok(fmt.Sprintf("Added category %s to %s (%s)", category.Name, list.Name, shortID(category.ID)))
			return nil
		})
	},
}

var categoryColorCmd = &cobra.Command{
	Use:   "color CATEGORY COLOR",
	Short: "Set a category's color, or 'none' to clear it",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		oneShot(func(st *state.Store) error {
			category, err := resolveCategory(st, "", args[0])
			if err != nil {
				return err
			}
			var color *string
			if !strings.EqualFold(args[1], "none") {
				color = model.StringPtr(args[1])
			}
			if err := st.SetCategoryColor(category.ID, color); err != nil {
				return err
			}
			ok(fmt.Sprintf("Updated color for %s", category.Name))
			return nil
		})
	},
}

var categoryRmCmd = &cobra.Command{
	Use:   "rm CATEGORY",
	Short: "Remove a category, keeping its tasks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		oneShot(func(st *state.Store) error {
			category, err := resolveCategory(st, "", args[0])
			if err != nil {
				return err
			}
			if err := st.RemoveCategory(category.ID); err != nil {
				return err
			}
			ok(fmt.Sprintf("Removed category %s", category.Name))
			return nil
		})
	},
}

func init() {
	categoryAddCmd.Flags().String("color", "", "Display color, e.g. #40a02b")
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryColorCmd)
	categoryCmd.AddCommand(categoryRmCmd)
	rootCmd.AddCommand(categoryCmd)
}
