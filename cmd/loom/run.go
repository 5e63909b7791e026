package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weftworks/loom/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <flow.yaml>",
	Short: "Execute a flow file",
	Long:  `Loads a YAML flow file, executes it against a fresh session, and prints the transcript. Interactive user steps read from stdin. Without --reply, the built-in assistant echoes the last user message.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		plain, _ := cmd.Flags().GetBool("plain")
		banner, _ := cmd.Flags().GetBool("banner")
		verbose, _ := cmd.Flags().GetBool("verbose")
		replies, _ := cmd.Flags().GetStringArray("reply")
		saveID, _ := cmd.Flags().GetString("save")
		storeDir, _ := cmd.Flags().GetString("store-dir")

		err := cli.RunFlow(args[0], cli.Options{
			Plain:    plain,
			Banner:   banner,
			Verbose:  verbose,
			Replies:  replies,
			SaveID:   saveID,
			StoreDir: storeDir,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("plain", false, "Disable markdown rendering of assistant output")
	runCmd.Flags().Bool("banner", false, "Show the startup banner")
	runCmd.Flags().StringArray("reply", nil, "Scripted assistant reply (repeatable; last one repeats)")
	runCmd.Flags().String("save", "", "Persist the final session under this ID")
	runCmd.Flags().String("store-dir", "", "Session store directory (default .loom/sessions)")
}
