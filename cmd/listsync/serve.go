package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kwestin/listsync/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "admin",
	Short:   "Run a standalone sync server",
	Long: `Start the reference sync server: an in-memory remote store with
the full REST surface and realtime feed. Point devices at it with
'listsync login'.

Data lives in memory only; this is for development and small home
setups, not durability.`,
	Run: func(cmd *cobra.Command, args []string) {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		token, _ := cmd.Flags().GetString("token")

		srv := server.NewServer(&server.Config{
			Host:   host,
			Port:   port,
			Token:  token,
			Logger: log.New(os.Stderr, "[server] ", log.LstdFlags),
		})
		if err := srv.Start(); err != nil {
			fatal("%v", err)
		}

		fmt.Printf("%s Sync server listening on %s\n", accentStyle.Render("▶"), srv.URL())
		if token == "" {
			fmt.Println(warnStyle.Render("   No token set; anyone who can reach the port can read and write."))
		}
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("Shutting down...")
		srv.Stop()
	},
}

func init() {
	serveCmd.Flags().String("host", "127.0.0.1", "Interface to listen on")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("token", "", "Require this bearer token")
	rootCmd.AddCommand(serveCmd)
}
