package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kwestin/listsync/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "listsync",
	Version: "0.3.0",
	Short:   "Offline-first task lists with background sync",
	Long: `listsync keeps task lists on this machine and mirrors them to a
remote store when an account is configured.

Every command works offline. Edits land in the local cache first; pushes
happen in the background and retry until they stick. The daemon
('listsync run') also follows the realtime feed so other devices show up
here within moments.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(),
		"Path to the configuration file")
	rootCmd.AddGroup(
		&cobra.Group{ID: "data", Title: "Data Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "admin", Title: "Utility Commands:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
