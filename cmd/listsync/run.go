package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:     "run",
	GroupID: "sync",
	Short:   "Run the sync daemon in the foreground",
	Long: `Start the engine and keep it running: cached data loads
immediately, the remote store is reconciled in the background, edits
made through the cache are pushed after a short debounce, and the
realtime feed applies changes from other devices as they happen.

Signals:
  SIGHUP   flush pending changes now (send on resume/foreground)
  SIGINT   stop cleanly
  SIGTERM  stop cleanly`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		eng, _, _ := buildEngine(cfg, true)

		if err := eng.Start(); err != nil {
			fatal("%v", err)
		}

		fmt.Printf("%s listsync daemon running\n", accentStyle.Render("▶"))
		if cfg.SignedIn() {
			fmt.Printf("   Account: %s on %s\n", cfg.Remote.UserID, cfg.Remote.URL)
		} else {
			fmt.Printf("   Account: %s\n", mutedStyle.Render("none (local only)"))
		}
		fmt.Printf("   Cache:   %s\n", cfg.CachePath())
		if cfg.LogFile != "" {
			fmt.Printf("   Log:     %s\n", cfg.LogFile)
		}
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		for sig := range sigCh {
			if sig != syscall.SIGHUP {
				break
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := eng.Flush(ctx); err != nil {
					warnf("flush failed: %v", err)
				}
			}()
		}

		fmt.Println("Shutting down...")
		eng.Stop()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
