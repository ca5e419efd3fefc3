package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/kwestin/listsync/internal/jsonl"
	"github.com/kwestin/listsync/internal/state"
)

var exportCmd = &cobra.Command{
	Use:     "export [FILE]",
	GroupID: "admin",
	Short:   "Write all data as JSONL",
	Long: `Export every list, category, task, and the synced preferences as
JSONL, one record per line. Writes to stdout unless FILE is given.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		readOnly(func(st *state.Store) {
			prefs := st.Preferences()
			doc := jsonl.Document{
				Lists:       st.Lists(),
				Tasks:       st.Tasks(),
				Preferences: &prefs,
			}
			if len(args) == 0 {
				if err := jsonl.Export(os.Stdout, doc); err != nil {
					fatal("%v", err)
				}
				return
			}
			if err := jsonl.ExportFile(args[0], doc); err != nil {
				fatal("%v", err)
			}
			lists, _, tasks := st.Counts()
			ok(fmt.Sprintf("Exported %d lists and %d tasks to %s", lists, tasks, args[0]))
		})
	},
}

var importCmd = &cobra.Command{
	Use:     "import FILE",
	GroupID: "admin",
	Short:   "Replace all data from a JSONL export",
	Long: `Import a JSONL export, replacing everything currently on this
device. The replacement syncs like any other edit, so it propagates to
other devices too.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := jsonl.ImportFile(args[0])
		if err != nil {
			fatal("%v", err)
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			proceed := false
			confirm := huh.NewConfirm().
				Title("Replace local data?").
				Description(fmt.Sprintf("The import has %d lists and %d tasks. Everything currently on this device will be replaced.",
					len(doc.Lists), len(doc.Tasks))).
				Value(&proceed)
			if err := confirm.Run(); err != nil || !proceed {
				fmt.Println(mutedStyle.Render("Import cancelled."))
				return
			}
		}

		oneShot(func(st *state.Store) error {
			prefs := st.Preferences()
			if doc.Preferences != nil {
				prefs = *doc.Preferences
			}
			st.Replace(doc.Lists, doc.Tasks, prefs)
			ok(fmt.Sprintf("Imported %d lists and %d tasks", len(doc.Lists), len(doc.Tasks)))
			return nil
		})
	},
}

func init() {
	importCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
