package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kwestin/listsync/internal/state"
)

var prefCmd = &cobra.Command{
	Use:     "pref",
	GroupID: "data",
	Short:   "View and change preferences",
	Long: `Preferences come in two kinds: show-completed follows the account
to every device, while theme and active-list stay on this machine.`,
}

var prefLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Show current preferences",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		readOnly(func(st *state.Store) {
			prefs := st.Preferences()
			device := st.DevicePrefs()
			fmt.Printf("show-completed: %v %s\n", prefs.ShowCompleted, mutedStyle.Render("(synced)"))
			theme := device.Theme
			if theme == "" {
				theme = "default"
			}
			fmt.Printf("theme:          %s %s\n", theme, mutedStyle.Render("(this device)"))
			active := device.ActiveListID
			if active == "" {
				active = "none"
			} else if list, err := resolveList(st, active); err == nil {
				active = fmt.Sprintf("%s (%s)", list.Name, shortID(list.ID))
			}
			fmt.Printf("active-list:    %s %s\n", active, mutedStyle.Render("(this device)"))
		})
	},
}

var prefShowCompletedCmd = &cobra.Command{
	Use:   "show-completed on|off",
	Short: "Show or hide completed tasks everywhere",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		show, err := parseOnOff(args[0])
		if err != nil {
			fatal("%v", err)
		}
		oneShot(func(st *state.Store) error {
			st.SetShowCompleted(show)
			ok(fmt.Sprintf("Show completed tasks: %s", args[0]))
			return nil
		})
	},
}

var prefThemeCmd = &cobra.Command{
	Use:   "theme NAME",
	Short: "Set the UI theme for this device",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		oneShot(func(st *state.Store) error {
			device := st.DevicePrefs()
			device.Theme = args[0]
			st.SetDevicePrefs(device)
			ok(fmt.Sprintf("Theme set to %s", args[0]))
			return nil
		})
	},
}

var prefActiveListCmd = &cobra.Command{
	Use:   "active-list LIST",
	Short: "Remember which list this device opens first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		oneShot(func(st *state.Store) error {
			list, err := resolveList(st, args[0])
			if err != nil {
				return err
			}
			device := st.DevicePrefs()
			device.ActiveListID = list.ID
			st.SetDevicePrefs(device)
			ok(fmt.Sprintf("Active list set to %s", list.Name))
			return nil
		})
	},
}

func init() {
	prefCmd.AddCommand(prefLsCmd)
	prefCmd.AddCommand(prefShowCompletedCmd)
	prefCmd.AddCommand(prefThemeCmd)
	prefCmd.AddCommand(prefActiveListCmd)
	rootCmd.AddCommand(prefCmd)
}
