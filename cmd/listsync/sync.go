package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Reconcile with the remote store once",
	Long: `Run a full sync cycle and exit: flush anything changed while
offline, fetch the remote state, and settle on whichever side wins.

This is the same cycle the daemon runs at startup. Use it after login,
from cron, or whenever you want to force a reconcile.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if !cfg.SignedIn() {
			fatal("no account configured; run 'listsync login' first")
		}

		eng, st, _ := buildEngine(cfg, false)
		defer eng.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		fmt.Printf("%s Syncing with %s...\n", accentStyle.Render("⇅"), cfg.Remote.URL)
		start := time.Now()
		if err := eng.RunOnce(ctx); err != nil {
			fatal("%v", err)
		}
		elapsed := time.Since(start)

		lists, categories, tasks := st.Counts()
		fmt.Printf("%s Sync complete in %v\n", successStyle.Render("✔"), elapsed.Round(time.Millisecond))
		fmt.Printf("   Lists: %d\n", lists)
		fmt.Printf("   Categories: %d\n", categories)
		fmt.Printf("   Tasks: %d\n", tasks)
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show account, cache, and sync state",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		account := mutedStyle.Render("not signed in")
		if cfg.SignedIn() {
			account = fmt.Sprintf("%s on %s", cfg.Remote.UserID, cfg.Remote.URL)
		}

		cachePath := cfg.CachePath()
		info, err := os.Stat(cachePath)
		if os.IsNotExist(err) {
			panel([]string{
				titleStyle.Render("listsync status"),
				"",
				"Account: " + account,
				"Cache:   " + mutedStyle.Render("not initialized ("+cachePath+")"),
			})
			return
		}
		if err != nil {
			fatal("checking cache: %v", err)
		}

		var lines []string
		lines = append(lines,
			titleStyle.Render("listsync status"),
			"",
			"Account: "+account,
			"Config:  "+configPath,
			"Cache:   "+cachePath,
			fmt.Sprintf("Size:    %s, modified %s",
				formatSize(info.Size()), info.ModTime().Format("2006-01-02 15:04:05")),
		)

		eng, st, ca := buildEngine(cfg, false)
		defer eng.Stop()
		if err := eng.LoadLocal(context.Background()); err != nil {
			fatal("%v", err)
		}
		lists, categories, tasks := st.Counts()
		lines = append(lines, fmt.Sprintf("Data:    %d lists, %d categories, %d tasks", lists, categories, tasks))

		unsynced, err := ca.Unsynced(context.Background())
		if err != nil {
			fatal("%v", err)
		}
		if unsynced {
			lines = append(lines, warnStyle.Render("Pending: local changes waiting to sync"))
		} else {
			lines = append(lines, successStyle.Render("Synced:  nothing pending"))
		}

		panel(lines)
	},
}

func formatSize(size int64) string {
	switch {
	case size > 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size > 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	}
	return fmt.Sprintf("%d bytes", size)
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
}
